package generator

import (
	"path"

	"github.com/google/uuid"
)

// Generator produces a new value of type T on each call to Next.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator produces UUIDv4 strings.
type UUIDV4Generator struct{}

func (g *UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV4Generator{}

// PacketStreamExt is the extension given to stored packet streams.
const PacketStreamExt = ".opf"

// ObjectKeyGenerator names stored packet streams "<prefix>/<id>.opf".
// IDs defaults to UUIDV4Generator.
type ObjectKeyGenerator struct {
	Prefix string
	IDs    Generator[string]
}

func (g *ObjectKeyGenerator) Next() (string, error) {
	ids := g.IDs
	if ids == nil {
		ids = &UUIDV4Generator{}
	}
	id, err := ids.Next()
	if err != nil {
		return "", err
	}
	return path.Join(g.Prefix, id+PacketStreamExt), nil
}

var _ Generator[string] = &ObjectKeyGenerator{}
