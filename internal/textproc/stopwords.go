package textproc

// defaultStopwords is the Indonesian stopword list used when the config does
// not override it. Domain-specific fillers (mengikuti, sesuai, pelatihan)
// are included because they appear in nearly every record and carry no
// matching signal.
var defaultStopwords = []string{
	"dan", "di", "ke", "dari", "yang", "untuk", "pada", "dengan",
	"dalam", "adalah", "ini", "itu", "atau", "oleh", "sebagai",
	"juga", "akan", "telah", "dapat", "ada", "tidak", "hal",
	"tersebut", "serta", "bagi", "hanya", "sangat", "bila",
	"saat", "kini", "yaitu", "dll", "dsb", "dst", "setelah",
	"mengikuti", "sesuai", "pelatihan",
}

// DefaultStopwords returns a copy of the built-in stopword list.
func DefaultStopwords() []string {
	out := make([]string, len(defaultStopwords))
	copy(out, defaultStopwords)
	return out
}

// newStopwordSet builds a lookup set from a word list.
func newStopwordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
