// Package discovery registers the running instance in etcd under a leased
// key so load balancers and peers can find live replicas.
package discovery

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/example/opticstore/pkg/config"
)

type Registry struct {
	client  *clientv3.Client
	config  *config.EtcdConfig
	leaseID clientv3.LeaseID
}

type Instance struct {
	Name string
	Host string
	Port int
}

func NewRegistry(cfg *config.EtcdConfig) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return &Registry{client: cli, config: cfg}, nil
}

// Register writes the instance address under a lease and keeps the lease
// alive until the context is cancelled.
func (r *Registry) Register(ctx context.Context, instance *Instance) error {
	key := fmt.Sprintf("%s%s/%s:%d", r.config.Prefix, instance.Name, instance.Host, instance.Port)
	value := fmt.Sprintf("%s:%d", instance.Host, instance.Port)

	lease, err := r.client.Grant(ctx, r.config.LeaseTTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	r.leaseID = lease.ID

	if _, err := r.client.Put(ctx, key, value, clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to keep lease alive: %w", err)
	}
	go func() {
		for range ch {
		}
	}()

	return nil
}

// Deregister revokes the lease, dropping the registration immediately
// instead of waiting for the TTL to lapse.
func (r *Registry) Deregister(ctx context.Context) error {
	if r.leaseID == 0 {
		return nil
	}
	_, err := r.client.Revoke(ctx, r.leaseID)
	return err
}

func (r *Registry) Close() error {
	return r.client.Close()
}
