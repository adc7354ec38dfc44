package imap4flags

const (
	opSETFLAG byte = iota + 1
	opADDFLAG
	opREMOVEFLAG
	opHASFLAG
)

const optComparator byte = 1
