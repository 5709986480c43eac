package docstore

import "encoding/json"

// OpKind identifies a batched write.
type OpKind int

const (
	OpSet OpKind = iota
	OpUpdate
	OpDelete
	// OpDeleteCollection removes every document directly under Path.
	OpDeleteCollection
)

// Op is one write inside a Batch.
type Op struct {
	Kind OpKind
	Path string
	Data json.RawMessage
}

// Batch collects writes that a Store commits as a single atomic unit.
// Encoding errors are deferred to Err so calls can be chained.
type Batch struct {
	ops []Op
	err error
}

// NewBatch returns an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Set(path string, data any) *Batch {
	raw, err := Marshal(data)
	if err != nil {
		b.fail(err)
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpSet, Path: path, Data: raw})
	return b
}

func (b *Batch) Update(path string, patch map[string]any) *Batch {
	raw, err := Marshal(patch)
	if err != nil {
		b.fail(err)
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpUpdate, Path: path, Data: raw})
	return b
}

func (b *Batch) Delete(path string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpDelete, Path: path})
	return b
}

func (b *Batch) DeleteCollection(collection string) *Batch {
	b.ops = append(b.ops, Op{Kind: OpDeleteCollection, Path: collection})
	return b
}

// Ops returns the queued operations in order.
func (b *Batch) Ops() []Op {
	return b.ops
}

// Err returns the first encoding error, if any.
func (b *Batch) Err() error {
	return b.err
}

// Len is the number of queued operations.
func (b *Batch) Len() int {
	return len(b.ops)
}

func (b *Batch) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
