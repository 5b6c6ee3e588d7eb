package hooks

import (
	"fmt"
	"sort"

	"github.com/sasha-s/go-deadlock"

	"ebbs/ebbs"
)

// Handles that every Registry knows about. An empty handle is the same as AllowHandle or NullHandle.
const (
	AllowHandle      = "allow"
	BlockHandle      = "block"
	AdminsOnlyHandle = "admins-only"

	NullHandle          = "null"
	KeywordsHandle      = "keywords"
	AuditHandle         = "audit"
	KeywordsAuditHandle = "keywords+audit"
)

// Registry maps the handles a full admin can install to the hooks behind them.
type Registry struct {
	mutex    *deadlock.Mutex
	pre      map[string]PreAction
	post     map[string]PostAction
	keywords *Keywords
	audit    *Audit
}

func NewRegistry() *Registry {
	r := &Registry{
		mutex:    &deadlock.Mutex{},
		pre:      make(map[string]PreAction),
		post:     make(map[string]PostAction),
		keywords: NewKeywords(),
		audit:    NewAudit(),
	}
	r.RegisterPreAction(AllowHandle, AllowPreAction{})
	r.RegisterPreAction(BlockHandle, BlockPreAction{})
	r.RegisterPreAction(AdminsOnlyHandle, AdminsOnlyPreAction{})
	r.RegisterPostAction(NullHandle, NullPostAction{})
	r.RegisterPostAction(KeywordsHandle, r.keywords)
	r.RegisterPostAction(AuditHandle, r.audit)
	r.RegisterPostAction(KeywordsAuditHandle, Chain{r.keywords, r.audit})
	return r
}

func (r *Registry) RegisterPreAction(handle string, h PreAction) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.pre[handle] = h
}

func (r *Registry) RegisterPostAction(handle string, h PostAction) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.post[handle] = h
}

func (r *Registry) PreAction(handle string) (PreAction, error) {
	if handle == "" {
		handle = AllowHandle
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if h, ok := r.pre[handle]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("pre-action %q: %w", handle, ebbs.ErrUnknownHook)
}

func (r *Registry) PostAction(handle string) (PostAction, error) {
	if handle == "" {
		handle = NullHandle
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if h, ok := r.post[handle]; ok {
		return h, nil
	}
	return nil, fmt.Errorf("post-action %q: %w", handle, ebbs.ErrUnknownHook)
}

func (r *Registry) Keywords() *Keywords {
	return r.keywords
}

func (r *Registry) Audit() *Audit {
	return r.audit
}

// Handles lists every registered pre-action and post-action handle.
func (r *Registry) Handles() (pre, post []string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for h := range r.pre {
		pre = append(pre, h)
	}
	for h := range r.post {
		post = append(post, h)
	}
	sort.Strings(pre)
	sort.Strings(post)
	return
}
