package engines

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/drydocklab/drydock/persist"
)

const defaultEtcdTimeout = 5 * time.Second

// EtcdEngine stores driver state in an etcd cluster under a common key
// prefix, giving the scheduler durability across machine failure. Every call
// carries a timeout; an expired timeout surfaces as a StorageFailure like any
// other engine error.
type EtcdEngine struct {
	client  *clientv3.Client
	prefix  string
	timeout time.Duration
}

// MakeEtcdEngine dials the given etcd endpoints and roots all keys at prefix.
// A zero timeout falls back to a conservative default.
func MakeEtcdEngine(endpoints []string, prefix string, timeout time.Duration) (*EtcdEngine, error) {
	if timeout == 0 {
		timeout = defaultEtcdTimeout
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: timeout,
	})
	if err != nil {
		return nil, errors.Wrap(err, "connecting to etcd")
	}

	return &EtcdEngine{client: client, prefix: prefix, timeout: timeout}, nil
}

func (e *EtcdEngine) key(id string) string {
	return e.prefix + id
}

func (e *EtcdEngine) Persist(id string, state []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if _, err := e.client.Put(ctx, e.key(id), string(state)); err != nil {
		return persist.NewStorageFailure("persist", err)
	}
	return nil
}

func (e *EtcdEngine) Read(id string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	resp, err := e.client.Get(ctx, e.key(id))
	if err != nil {
		return nil, persist.NewStorageFailure("read", err)
	}
	if len(resp.Kvs) == 0 {
		return nil, persist.ErrNotFound
	}
	return resp.Kvs[0].Value, nil
}

func (e *EtcdEngine) ReadAll() ([][]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	resp, err := e.client.Get(ctx, e.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, persist.NewStorageFailure("readAll", err)
	}

	all := make([][]byte, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		all = append(all, kv.Value)
	}
	return all, nil
}

func (e *EtcdEngine) Expunge(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if _, err := e.client.Delete(ctx, e.key(id)); err != nil {
		return persist.NewStorageFailure("expunge", err)
	}
	return nil
}

func (e *EtcdEngine) Close() error {
	return e.client.Close()
}
