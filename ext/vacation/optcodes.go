package vacation

const opVACATION byte = 1

const (
	optSubject byte = 1
	optFrom    byte = 2
	optHandle  byte = 3
	optDays    byte = 4
	optMime    byte = 5
	optAddrs   byte = 6
)
