package directory

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"dirsync/core/bean"
	"dirsync/core/logger"
	"dirsync/core/reconcile"

	"github.com/go-ldap/ldap/v3"
	"go.uber.org/zap"
)

// DefaultBinaryAttributes are always read as raw bytes.
var DefaultBinaryAttributes = []string{"objectSid", "objectGUID", "jpegPhoto", "userCertificate"}

// Conn is the subset of *ldap.Conn used by the directory.
type Conn interface {
	SearchWithPaging(searchRequest *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error)
	Add(addRequest *ldap.AddRequest) error
	Modify(modifyRequest *ldap.ModifyRequest) error
	ModifyDN(modifyDNRequest *ldap.ModifyDNRequest) error
	Del(delRequest *ldap.DelRequest) error
}

// Directory is an LDAP synchronization destination.
type Directory struct {
	conn   Conn
	cfg    Config
	logger *zap.Logger
	binary map[string]bool
	close  func()
}

// Option configures a Directory.
type Option func(*Directory)

// WithBinaryAttributes declares attributes read as raw bytes, in addition to
// DefaultBinaryAttributes.
func WithBinaryAttributes(names ...string) Option {
	return func(d *Directory) {
		for _, name := range names {
			d.binary[bean.FoldName(name)] = true
		}
	}
}

// New creates a directory on top of an established connection.
func New(conn Conn, cfg Config, logger *zap.Logger, opts ...Option) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory{
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		binary: make(map[string]bool),
		close:  func() {},
	}
	WithBinaryAttributes(DefaultBinaryAttributes...)(d)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dial connects and binds to the directory described by cfg.
func Dial(cfg Config, logger *zap.Logger, opts ...Option) (*Directory, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	tlsConfig := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}

	conn, err := ldap.DialURL(cfg.URL,
		ldap.DialWithDialer(&net.Dialer{Timeout: timeout}),
		ldap.DialWithTLSConfig(tlsConfig),
	)
	if err != nil {
		return nil, wrapError("dial", "", err)
	}
	conn.SetTimeout(timeout)

	if cfg.StartTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			conn.Close()
			return nil, wrapError("start_tls", "", err)
		}
	}
	if cfg.BindDN != "" {
		if err := conn.Bind(cfg.BindDN, cfg.BindPassword); err != nil {
			conn.Close()
			return nil, wrapError("bind", cfg.BindDN, err)
		}
	}

	d := New(conn, cfg, logger, opts...)
	d.close = func() { conn.Close() }
	return d, nil
}

// Close releases the connection.
func (d *Directory) Close() {
	d.close()
}

// List implements connector.Source with a paged search.
func (d *Directory) List(ctx context.Context) ([]*bean.Bean, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pageSize := d.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	req := ldap.NewSearchRequest(
		d.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, 0, false,
		d.cfg.Filter,
		d.cfg.Attributes,
		nil,
	)

	start := time.Now()
	result, err := d.conn.SearchWithPaging(req, uint32(pageSize))
	if err != nil {
		return nil, wrapError("search", d.cfg.BaseDN, err)
	}

	beans := make([]*bean.Bean, 0, len(result.Entries))
	for _, entry := range result.Entries {
		beans = append(beans, d.entryToBean(entry))
	}
	d.logger.Debug("Directory search completed",
		zap.String("base_dn", d.cfg.BaseDN),
		zap.String("filter", d.cfg.Filter),
		zap.Int("entries", len(beans)),
		zap.Duration("duration", time.Since(start)),
	)
	return beans, nil
}

func (d *Directory) entryToBean(entry *ldap.Entry) *bean.Bean {
	b := bean.New(entry.DN)
	for _, attr := range entry.Attributes {
		values := make([]bean.Value, 0, len(attr.Values))
		if d.binary[bean.FoldName(attr.Name)] {
			for _, raw := range attr.ByteValues {
				values = append(values, bean.Binary(raw))
			}
		} else {
			values = append(values, bean.Texts(attr.Values...)...)
		}
		b.Put(attr.Name, values...)
	}
	return b
}

// Apply implements reconcile.Applier.
func (d *Directory) Apply(ctx context.Context, op *reconcile.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := logger.WithEntry(d.logger, string(op.Kind), op.DN)

	var err error
	switch op.Kind {
	case reconcile.AddEntry:
		err = d.conn.Add(AddRequest(op))
	case reconcile.ModifyEntry:
		err = d.conn.Modify(ModifyRequest(op))
	case reconcile.DeleteEntry:
		err = d.conn.Del(ldap.NewDelRequest(op.DN, nil))
	case reconcile.RenameEntry:
		var req *ldap.ModifyDNRequest
		req, err = ModifyDNRequest(op)
		if err == nil {
			err = d.conn.ModifyDN(req)
		}
	default:
		err = fmt.Errorf("unknown operation kind %q", op.Kind)
	}
	if err != nil {
		log.Warn("Directory operation failed", zap.Error(err))
		return wrapError(string(op.Kind), op.DN, err)
	}
	log.Debug("Directory operation applied", zap.Int("changes", len(op.Changes)))
	return nil
}

func rawValues(attr *bean.Attribute) []string {
	out := make([]string, 0, attr.Len())
	for _, v := range attr.Values {
		out = append(out, string(v.Bytes()))
	}
	return out
}

// AddRequest translates an add_entry. Attributes without values are dropped.
func AddRequest(op *reconcile.Operation) *ldap.AddRequest {
	req := ldap.NewAddRequest(op.DN, nil)
	for _, change := range op.Changes {
		if change.Attribute.IsEmpty() {
			continue
		}
		req.Attribute(change.Attribute.Name, rawValues(change.Attribute))
	}
	return req
}

// ModifyRequest translates a modify_entry.
func ModifyRequest(op *reconcile.Operation) *ldap.ModifyRequest {
	req := ldap.NewModifyRequest(op.DN, nil)
	for _, change := range op.Changes {
		name := change.Attribute.Name
		switch change.Type {
		case reconcile.ChangeAdd:
			req.Add(name, rawValues(change.Attribute))
		case reconcile.ChangeReplace:
			req.Replace(name, rawValues(change.Attribute))
		case reconcile.ChangeRemove:
			req.Delete(name, []string{})
		}
	}
	return req
}

// ModifyDNRequest translates a rename_entry. The new superior is only set
// when the parent of the entry changes.
func ModifyDNRequest(op *reconcile.Operation) (*ldap.ModifyDNRequest, error) {
	oldDN, err := ldap.ParseDN(op.DN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DN %q: %w", op.DN, err)
	}
	newDN, err := ldap.ParseDN(op.NewDN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse new DN %q: %w", op.NewDN, err)
	}
	if len(newDN.RDNs) == 0 {
		return nil, fmt.Errorf("invalid new DN %q", op.NewDN)
	}

	newRDN := newDN.RDNs[0].String()
	newParent := parent(newDN)
	newSuperior := ""
	if !strings.EqualFold(parent(oldDN), newParent) {
		newSuperior = newParent
	}
	return ldap.NewModifyDNRequest(op.DN, newRDN, true, newSuperior), nil
}

func parent(dn *ldap.DN) string {
	if len(dn.RDNs) < 2 {
		return ""
	}
	return (&ldap.DN{RDNs: dn.RDNs[1:]}).String()
}
