package graph

var complement = [256]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A',
	'a': 't', 'c': 'g', 'g': 'c', 't': 'a',
	'N': 'N', 'n': 'n',
}

// ReverseComplement returns the reverse complement of a nucleotide
// sequence. Symbols outside ACGTN map to N.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		c := complement[seq[i]]
		if c == 0 {
			c = 'N'
		}
		out[len(seq)-1-i] = c
	}
	return string(out)
}
