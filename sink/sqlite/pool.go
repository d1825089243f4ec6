package sqlite

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Conn is a pooled connection. The pool validates resting connections
// with Ping on checkout and discards the ones that fail.
type Conn interface {
	Ping(ctx context.Context) error
	Close() error
}

// Opener creates a new connection when the pool has no resting one.
type Opener func(ctx context.Context) (Conn, error)

// Pool errors.
var (
	ErrBadPoolSize = errors.New("sqlite: pool size must be positive")
	ErrPoolClosed  = errors.New("sqlite: pool is closed")
)

// Pool is a bounded multiset of open connections. A connection is either
// checked out (owned by exactly one caller) or resting in the pool. A
// counting semaphore sized to the maximum bounds checkouts; permits,
// resting and checked-out connections are conserved across every path,
// including failures.
type Pool struct {
	sem  *semaphore.Weighted
	idle chan Conn
	open Opener

	mu     sync.Mutex
	live   int
	closed bool
}

// NewPool creates a pool holding at most max live connections.
func NewPool(max int, open Opener) (*Pool, error) {
	if max <= 0 {
		return nil, ErrBadPoolSize
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(max)),
		idle: make(chan Conn, max),
		open: open,
	}, nil
}

// Live returns the number of open connections, resting or checked out.
func (p *Pool) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

// Acquire blocks until a slot is available, then hands out a resting
// connection that still responds to Ping, discarding dead ones, or opens
// a new connection when the pool is empty.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		p.sem.Release(1)
		return nil, ErrPoolClosed
	}

	for {
		select {
		case conn := <-p.idle:
			if conn.Ping(ctx) == nil {
				return &Lease{pool: p, conn: conn}, nil
			}
			// Dead resting connection: discard and keep looking without
			// blocking the caller.
			conn.Close()
			p.addLive(-1)
		default:
			conn, err := p.open(ctx)
			if err != nil {
				p.sem.Release(1)
				return nil, err
			}
			p.addLive(1)
			return &Lease{pool: p, conn: conn}, nil
		}
	}
}

// Close discards every resting connection. Checked-out connections are
// closed as their leases are released.
func (p *Pool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	for {
		select {
		case conn := <-p.idle:
			conn.Close()
			p.addLive(-1)
		default:
			return nil
		}
	}
}

func (p *Pool) addLive(delta int) {
	p.mu.Lock()
	p.live += delta
	p.mu.Unlock()
}

// Lease is a checked-out connection. Exactly one Release must follow
// every successful Acquire.
type Lease struct {
	pool     *Pool
	conn     Conn
	released bool
}

// Conn returns the leased connection.
func (l *Lease) Conn() Conn {
	return l.conn
}

// Release returns the connection to the pool when it is still healthy,
// or closes it otherwise. The semaphore permit is released on every
// path. Release is idempotent.
func (l *Lease) Release(healthy bool) {
	if l.released {
		return
	}
	l.released = true
	defer l.pool.sem.Release(1)

	l.pool.mu.Lock()
	closed := l.pool.closed
	l.pool.mu.Unlock()

	if healthy && !closed {
		select {
		case l.pool.idle <- l.conn:
			return
		default:
		}
	}
	l.conn.Close()
	l.pool.addLive(-1)
}
