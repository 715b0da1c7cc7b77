package datalayer

import (
	"context"
	"fmt"
	"io"

	"github.com/glizzus/opusframe/internal/generator"
)

// StorePacketStream uploads a length-prefixed packet stream under a freshly
// generated key and returns that key.
func StorePacketStream(ctx context.Context, store BlobStorage, keys generator.Generator[string], packets io.Reader) (string, error) {
	key, err := keys.Next()
	if err != nil {
		return "", fmt.Errorf("failed to generate object key: %w", err)
	}
	if err := store.Put(ctx, key, packets, PutOptions{Size: -1, ContentType: PacketStreamContentType}); err != nil {
		return "", fmt.Errorf("failed to store packet stream %s: %w", key, err)
	}
	return key, nil
}
