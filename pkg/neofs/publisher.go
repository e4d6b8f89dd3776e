package neofs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neofs-sdk-go/client"
	cid "github.com/nspcc-dev/neofs-sdk-go/container/id"
	"github.com/nspcc-dev/neofs-sdk-go/object"
	oid "github.com/nspcc-dev/neofs-sdk-go/object/id"
	"github.com/nspcc-dev/neofs-sdk-go/pool"
	"github.com/nspcc-dev/neofs-sdk-go/user"
	"go.uber.org/zap"
)

// Object attributes set by Publisher.
const (
	AttributeFileName    = "FileName"
	AttributeContentType = "Content-Type"
	AttributeTimestamp   = "Timestamp"

	contentTypeJSON = "application/json"
)

// MaxObjectSize is the limit for objects read with Publisher.Get.
const MaxObjectSize = 1 << 20

const (
	defaultDialTimeout        = 10 * time.Second
	defaultStreamTimeout      = 30 * time.Second
	defaultHealthcheckTimeout = 10 * time.Second
)

type (
	// Config contains Publisher parameters.
	Config struct {
		Log                *zap.Logger
		Addresses          []string
		ContainerID        cid.ID
		DialTimeout        time.Duration
		StreamTimeout      time.Duration
		HealthcheckTimeout time.Duration
		// GatewayURL is the base of HTTP gateway links, no links are
		// produced if it's empty.
		GatewayURL string
	}

	// Publisher stores documents in a single NeoFS container.
	Publisher struct {
		cfg    Config
		log    *zap.Logger
		signer user.Signer
		store  objectStore
		closer func() error
	}

	objectStore interface {
		Reader
		put(ctx context.Context, hdr object.Object, signer user.Signer, payload []byte) (oid.ID, error)
	}

	poolStore struct {
		*pool.Pool
	}
)

// NewPublisher creates a Publisher signing requests with the given key. The
// pool is not connected until Dial is called.
func NewPublisher(cfg Config, priv *keys.PrivateKey) (*Publisher, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New("no NeoFS addresses provided")
	}
	if cfg.ContainerID.IsZero() {
		return nil, errors.New("no NeoFS container provided")
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.StreamTimeout <= 0 {
		cfg.StreamTimeout = defaultStreamTimeout
	}
	if cfg.HealthcheckTimeout <= 0 {
		cfg.HealthcheckTimeout = defaultHealthcheckTimeout
	}

	signer := user.NewAutoIDSignerRFC6979(priv.PrivateKey)
	params := pool.DefaultOptions()
	params.SetHealthcheckTimeout(cfg.HealthcheckTimeout)
	params.SetNodeDialTimeout(cfg.DialTimeout)
	params.SetNodeStreamTimeout(cfg.StreamTimeout)
	p, err := pool.New(pool.NewFlatNodeParams(cfg.Addresses), signer, params)
	if err != nil {
		return nil, fmt.Errorf("can't create NeoFS pool: %w", err)
	}
	return &Publisher{
		cfg:    cfg,
		log:    cfg.Log.With(zap.String("container", cfg.ContainerID.EncodeToString())),
		signer: signer,
		store:  poolStore{p},
		closer: p.Close,
	}, nil
}

// Dial connects to the storage nodes.
func (p *Publisher) Dial(ctx context.Context) error {
	ps, ok := p.store.(poolStore)
	if !ok {
		return nil
	}
	if err := ps.Dial(ctx); err != nil {
		return fmt.Errorf("can't dial NeoFS: %w", err)
	}
	return nil
}

// Close releases pool connections.
func (p *Publisher) Close() {
	if p.closer == nil {
		return
	}
	if err := p.closer(); err != nil {
		p.log.Warn("failed to close NeoFS pool", zap.Error(err))
	}
}

// Publish stores payload as a JSON object named name and returns its neofs
// reference.
func (p *Publisher) Publish(ctx context.Context, name string, payload []byte) (string, error) {
	var hdr object.Object
	hdr.SetContainerID(p.cfg.ContainerID)
	hdr.SetOwner(p.signer.UserID())
	hdr.SetAttributes(
		object.NewAttribute(AttributeFileName, name),
		object.NewAttribute(AttributeContentType, contentTypeJSON),
		object.NewAttribute(AttributeTimestamp, strconv.FormatInt(time.Now().Unix(), 10)),
	)

	id, err := p.store.put(ctx, hdr, p.signer, payload)
	if err != nil {
		return "", err
	}
	var addr oid.Address
	addr.SetContainer(p.cfg.ContainerID)
	addr.SetObject(id)
	ref := Ref(addr)
	p.log.Debug("object stored", zap.String("name", name), zap.String("ref", ref), zap.Int("size", len(payload)))
	return ref, nil
}

// Get returns the contents of the object referenced by uri.
func (p *Publisher) Get(ctx context.Context, uri string) ([]byte, error) {
	return Get(ctx, p.store, p.signer, uri, MaxObjectSize)
}

// GatewayURL returns HTTP gateway link for the reference or an empty string
// if there is no gateway configured.
func (p *Publisher) GatewayURL(ref string) string {
	return GatewayURL(p.cfg.GatewayURL, ref)
}

// GatewayURL returns HTTP gateway link for the neofs reference. Empty string
// is returned for invalid references and empty gateway.
func GatewayURL(gateway, ref string) string {
	if gateway == "" {
		return ""
	}
	addr, _, err := ParseURI(ref)
	if err != nil {
		return ""
	}
	return strings.TrimRight(gateway, "/") + "/" + addr.Container().EncodeToString() + "/" + addr.Object().EncodeToString()
}

func (s poolStore) put(ctx context.Context, hdr object.Object, signer user.Signer, payload []byte) (oid.ID, error) {
	writer, err := s.ObjectPutInit(ctx, hdr, signer, client.PrmObjectPutInit{})
	if err != nil {
		return oid.ID{}, fmt.Errorf("failed to initiate object upload: %w", err)
	}
	_, err = writer.Write(payload)
	if err != nil {
		_ = writer.Close()
		return oid.ID{}, fmt.Errorf("failed to write object data: %w", err)
	}
	err = writer.Close()
	if err != nil {
		return oid.ID{}, fmt.Errorf("failed to close object writer: %w", err)
	}
	return writer.GetResult().StoredObjectID(), nil
}
