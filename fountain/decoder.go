package fountain

import "rvs/util"

// row is one stored, not-yet-solved equation: the XOR of the chunks in
// mask equals payload. Rows live in a flat slice; cascading
// substitution is a sweep over that slice, not a pointer graph.
type row struct {
	mask    Bitset
	payload []byte
}

// Decoder accumulates fountain packets online and reconstructs the N
// source chunks from them. Peeling (cascading substitution) runs as
// each packet arrives; Gauss-Jordan elimination over the rows peeling
// left unresolved runs only in Finish, so Done can stay false after
// enough linearly independent packets have arrived until Finish is
// called. It never rejects out-of-order or duplicate packets; loss
// tolerance and reordering are the point.
type Decoder struct {
	n         int
	chunkSize uint32
	solved    [][]byte // nil until chunk i is solved
	solvedN   int
	rows      []row
}

// NewDecoder creates a decoder for n chunks of chunkSize bytes each.
func NewDecoder(n int, chunkSize uint32) *Decoder {
	return &Decoder{
		n:         n,
		chunkSize: chunkSize,
		solved:    make([][]byte, n),
	}
}

// SolvedCount returns how many of the N source chunks are currently
// known.
func (d *Decoder) SolvedCount() int { return d.solvedN }

// Done reports whether every chunk has been solved.
func (d *Decoder) Done() bool { return d.solvedN == d.n }

// AddPacket verifies and folds one packet into the decoder's state. A
// CRC mismatch is a silent discard: the packet simply contributes
// nothing and is not itself a fatal error.
func (d *Decoder) AddPacket(p Packet) {
	if !p.Verify() {
		util.DebugPrintln("fountain: dropping packet, xor_crc mismatch")
		return
	}
	if p.Mask.Len() != d.n {
		util.DebugPrintln("fountain: dropping packet, mask length does not match chunk count")
		return
	}

	mask := p.Mask.Clone()
	payload := make([]byte, len(p.Payload))
	copy(payload, p.Payload)

	d.reduceAgainstSolved(mask, payload)
	d.insertAndCascade(mask, payload)
}

// reduceAgainstSolved XORs in every already-solved chunk the row still
// references and clears those bits.
func (d *Decoder) reduceAgainstSolved(mask Bitset, payload []byte) {
	for idx := 0; idx < d.n; idx++ {
		if d.solved[idx] != nil && mask.Get(idx) {
			xorInto(payload, d.solved[idx])
			mask.Clear(idx)
		}
	}
}

// insertAndCascade stores a reduced row, or if it has collapsed to a
// single unknown chunk, marks that chunk solved and sweeps every
// stored row for further reduction, recursively.
func (d *Decoder) insertAndCascade(mask Bitset, payload []byte) {
	worklist := []row{{mask: mask, payload: payload}}

	for len(worklist) > 0 {
		r := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if r.mask.IsZero() {
			continue // nothing new learned, discard
		}

		idx, ok := r.mask.Singleton()
		if !ok {
			d.rows = append(d.rows, r)
			continue
		}
		if d.solved[idx] != nil {
			continue // already known, redundant row
		}

		d.solved[idx] = r.payload
		d.solvedN++

		remaining := d.rows[:0]
		for _, stored := range d.rows {
			if stored.mask.Get(idx) {
				xorInto(stored.payload, d.solved[idx])
				stored.mask.Clear(idx)
				worklist = append(worklist, stored)
			} else {
				remaining = append(remaining, stored)
			}
		}
		d.rows = remaining
	}
}

// Finish attempts Gauss-Jordan elimination over GF(2) on any rows that
// peeling alone could not resolve, then reports either the
// reconstructed chunks in order or the list of chunks still missing.
func (d *Decoder) Finish() (chunks [][]byte, missing []uint32) {
	if !d.Done() {
		util.DebugPrintf("fountain: cascade stalled at %d/%d chunks, %d rows stored, falling back to Gauss-Jordan elimination", d.solvedN, d.n, len(d.rows))
		before := d.solvedN
		d.gaussianEliminate()
		util.DebugPrintf("fountain: Gauss-Jordan elimination solved %d additional chunks (%d/%d total)", d.solvedN-before, d.solvedN, d.n)
	}

	if d.Done() {
		chunks = make([][]byte, d.n)
		copy(chunks, d.solved)
		return chunks, nil
	}

	for i := 0; i < d.n; i++ {
		if d.solved[i] == nil {
			missing = append(missing, uint32(i))
		}
	}
	return nil, missing
}

func (d *Decoder) gaussianEliminate() {
	rows := make([]row, len(d.rows))
	for i, r := range d.rows {
		rows[i] = row{mask: r.mask.Clone(), payload: append([]byte(nil), r.payload...)}
	}

	usedAsPivot := make([]bool, len(rows))

	for col := 0; col < d.n; col++ {
		if d.solved[col] != nil {
			continue
		}
		pivot := -1
		for i := range rows {
			if !usedAsPivot[i] && rows[i].mask.Get(col) {
				pivot = i
				break
			}
		}
		if pivot == -1 {
			continue
		}
		usedAsPivot[pivot] = true

		for i := range rows {
			if i == pivot {
				continue
			}
			if rows[i].mask.Get(col) {
				rows[i].mask.XOR(rows[pivot].mask)
				xorInto(rows[i].payload, rows[pivot].payload)
			}
		}
	}

	for _, r := range rows {
		if idx, ok := r.mask.Singleton(); ok && d.solved[idx] == nil {
			d.solved[idx] = r.payload
			d.solvedN++
		}
	}
}
