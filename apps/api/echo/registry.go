package echoapi

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/darivadeneira/evento-web/core/dialog"
)

const defaultDialogTTL = 30 * time.Minute

type registered struct {
	dialog *dialog.Dialog
	owner  string
}

// registry keeps the open dialogs between requests. An abandoned dialog is closed when its TTL
// runs out; every access renews it.
type registry struct {
	cache *cache.Cache
}

func newRegistry(ttl time.Duration) *registry {
	if ttl <= 0 {
		ttl = defaultDialogTTL
	}
	c := cache.New(ttl, ttl/2)
	c.OnEvicted(func(_ string, v interface{}) {
		if r, ok := v.(registered); ok {
			r.dialog.Close()
		}
	})
	return &registry{cache: c}
}

func (r *registry) add(d *dialog.Dialog, owner string) {
	r.cache.SetDefault(d.ID(), registered{dialog: d, owner: owner})
}

// get returns the dialog id opened by owner. Other users' dialogs are reported as missing.
func (r *registry) get(id, owner string) (*dialog.Dialog, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	reg := v.(registered)
	if reg.owner != owner || reg.dialog.Closed() {
		return nil, false
	}
	r.cache.SetDefault(id, reg)
	return reg.dialog, true
}

// remove forgets id and closes its dialog.
func (r *registry) remove(id string) {
	r.cache.Delete(id)
}

func (r *registry) closeAll() {
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}

func (r *registry) len() int {
	return r.cache.ItemCount()
}
