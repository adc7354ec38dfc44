package core

// Optional-operand codes. Each command's block is independent, so these
// numbering spaces don't need to be globally unique — they're kept in
// one file only so the validate-time Link* calls in commands.go and the
// runtime dispatch in ops.go can't drift apart.
const (
	optComparator  byte = 1
	optMatchBase   byte = 2 // 6 contiguous codes: is, contains, matches, count, value, regex
	optMatchCount  byte = 6
	optAddrPartBase byte = optMatchBase + optMatchCount // 5 contiguous codes
	optAddrPartCount byte = 5

	optCopy byte = 1 // fileinto/redirect :copy
)
