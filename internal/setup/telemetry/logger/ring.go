package logger

// ring keeps the most recent lines written to a file.
type ring struct {
	lines []string
	next  int // Index of the next write
	count int // Number of valid lines
}

func newRing(capacity int) *ring {
	return &ring{lines: make([]string, max(capacity, 1))}
}

func (r *ring) push(line string) {
	r.lines[r.next] = line
	r.next = (r.next + 1) % len(r.lines)
	r.count = min(r.count+1, len(r.lines))
}

// ordered returns the kept lines oldest first.
func (r *ring) ordered() []string {
	out := make([]string, 0, r.count)
	start := (r.next - r.count + len(r.lines)) % len(r.lines)
	for i := range r.count {
		out = append(out, r.lines[(start+i)%len(r.lines)])
	}
	return out
}
