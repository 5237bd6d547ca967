package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"talkline/domain/event"

	"github.com/stretchr/testify/require"
)

type noopSink struct{ id string }

func (noopSink) Consume(context.Context, event.DomainEvent) error { return nil }

func Test_Register_Lookup_Unregister(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	sink := noopSink{id: "c1"}
	registry.Register("alice", "c1", sink)

	sinks := registry.Lookup("alice")
	req.Len(sinks, 1)
	req.Equal(sink, sinks[0])

	registry.Unregister("alice", "c1")
	req.Nil(registry.Lookup("alice"))
	req.Zero(registry.Online())
}

func Test_Lookup_Absent_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	req.Nil(registry.Lookup("nobody"))
}

func Test_Unregister_Absent_Is_Noop(t *testing.T) {
	registry := NewRegistry()
	registry.Unregister("nobody", "c1")
}

func Test_Multiple_Connections_Per_User(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	registry.Register("alice", "c1", noopSink{id: "c1"})
	registry.Register("alice", "c2", noopSink{id: "c2"})
	req.Len(registry.Lookup("alice"), 2)
	req.Equal(1, registry.Online())

	registry.Unregister("alice", "c1")
	req.Len(registry.Lookup("alice"), 1)

	registry.Unregister("alice", "c2")
	req.Nil(registry.Lookup("alice"))
}

func Test_Concurrent_Access(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := fmt.Sprintf("user-%d", n%5)
			connID := fmt.Sprintf("conn-%d", n)
			registry.Register(user, connID, noopSink{id: connID})
			registry.Lookup(user)
			registry.Unregister(user, connID)
		}(i)
	}
	wg.Wait()

	req.Zero(registry.Online())
}
