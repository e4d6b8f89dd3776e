package neofs

import (
	"context"
	"crypto/sha256"
	"errors"
	"net/url"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neofs-sdk-go/client"
	cid "github.com/nspcc-dev/neofs-sdk-go/container/id"
	"github.com/nspcc-dev/neofs-sdk-go/object"
	oid "github.com/nspcc-dev/neofs-sdk-go/object/id"
	"github.com/nspcc-dev/neofs-sdk-go/user"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testContainer = "C3swfg8MiMJ9bXbeFG6dWJTCoHp9hAEZkHezvbSwK1Cc"
	testObject    = "3nQH1L8u3eM9jt2mZCs6MyjzdjerdSzBkXCYYj4M4Znk"
)

var errNotFound = errors.New("object not found")

type fakeStore struct {
	stored  map[oid.ID]object.Object
	nextID  oid.ID
	putErr  error
	hashes  [][]byte
	payload []byte
}

func (f *fakeStore) put(_ context.Context, hdr object.Object, _ user.Signer, payload []byte) (oid.ID, error) {
	if f.putErr != nil {
		return oid.ID{}, f.putErr
	}
	f.stored[f.nextID] = hdr
	f.payload = payload
	return f.nextID, nil
}

func (f *fakeStore) ObjectGetInit(context.Context, cid.ID, oid.ID, user.Signer, client.PrmObjectGet) (object.Object, *client.PayloadReader, error) {
	return object.Object{}, nil, errNotFound
}

func (f *fakeStore) ObjectRangeInit(context.Context, cid.ID, oid.ID, uint64, uint64, user.Signer, client.PrmObjectRange) (*client.ObjectRangeReader, error) {
	return nil, errNotFound
}

func (f *fakeStore) ObjectHead(_ context.Context, _ cid.ID, id oid.ID, _ user.Signer, _ client.PrmObjectHead) (*object.Object, error) {
	hdr, ok := f.stored[id]
	if !ok {
		return nil, errNotFound
	}
	return &hdr, nil
}

func (f *fakeStore) ObjectHash(context.Context, cid.ID, oid.ID, user.Signer, client.PrmObjectHash) ([][]byte, error) {
	return f.hashes, nil
}

func newTestPublisher(t *testing.T) (*Publisher, *fakeStore) {
	var (
		containerID cid.ID
		objectID    oid.ID
	)
	require.NoError(t, containerID.DecodeString(testContainer))
	require.NoError(t, objectID.DecodeString(testObject))

	priv, err := keys.NewPrivateKey()
	require.NoError(t, err)

	store := &fakeStore{stored: make(map[oid.ID]object.Object), nextID: objectID}
	return &Publisher{
		cfg: Config{
			ContainerID: containerID,
			GatewayURL:  "https://http.fs.neo.org/",
		},
		log:    zaptest.NewLogger(t),
		signer: user.NewAutoIDSignerRFC6979(priv.PrivateKey),
		store:  store,
	}, store
}

func TestParseRange(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		offset, length, err := parseRange("13|87")
		require.NoError(t, err)
		require.Equal(t, uint64(13), offset)
		require.Equal(t, uint64(87), length)
	})
	for name, s := range map[string]string{
		"missing offset":    "|87",
		"missing length":    "13|",
		"missing separator": "1387",
		"invalid number":    "ab|87",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseRange(s)
			require.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestParseNeoFSURL(t *testing.T) {
	var objectAddr oid.Address
	require.NoError(t, objectAddr.DecodeString(testContainer+"/"+testObject))

	validPrefix := "neofs:" + testContainer + "/" + testObject

	testCases := []struct {
		url    string
		params []string
		err    error
	}{
		{validPrefix, nil, nil},
		{validPrefix + "/", []string{""}, nil},
		{validPrefix + "/range/1|2", []string{"range", "1|2"}, nil},
		{"neoffs:" + testContainer + "/" + testObject, nil, ErrInvalidScheme},
		{"neofs:" + testContainer, nil, ErrMissingObject},
		{"neofs:" + testContainer + "ooo/" + testObject, nil, ErrInvalidContainer},
		{"neofs:" + testContainer + "/ooo" + testObject, nil, ErrInvalidObject},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			u, err := url.Parse(tc.url)
			require.NoError(t, err)
			oa, ps, err := parseNeoFSURL(u)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, objectAddr, *oa)
			require.Equal(t, len(tc.params), len(ps))
			if len(ps) != 0 {
				require.Equal(t, tc.params, ps)
			}
		})
	}
}

func TestRef(t *testing.T) {
	addr, ps, err := ParseURI("neofs:" + testContainer + "/" + testObject)
	require.NoError(t, err)
	require.Empty(t, ps)
	require.Equal(t, "neofs:"+testContainer+"/"+testObject, Ref(addr))
}

func TestGatewayURL(t *testing.T) {
	ref := "neofs:" + testContainer + "/" + testObject
	require.Equal(t, "https://gw.example/"+testContainer+"/"+testObject, GatewayURL("https://gw.example/", ref))
	require.Empty(t, GatewayURL("", ref))
	require.Empty(t, GatewayURL("https://gw.example", "ipfs://whatever"))
}

func TestPublish(t *testing.T) {
	p, store := newTestPublisher(t)

	ref, err := p.Publish(context.Background(), "blackswan-analysis.json", []byte(`{"score":1}`))
	require.NoError(t, err)
	require.Equal(t, "neofs:"+testContainer+"/"+testObject, ref)
	require.Equal(t, []byte(`{"score":1}`), store.payload)
	require.Equal(t, "https://http.fs.neo.org/"+testContainer+"/"+testObject, p.GatewayURL(ref))

	hdr := store.stored[store.nextID]
	attrs := make(map[string]string)
	for _, a := range hdr.Attributes() {
		attrs[a.Key()] = a.Value()
	}
	require.Equal(t, "blackswan-analysis.json", attrs[AttributeFileName])
	require.Equal(t, "application/json", attrs[AttributeContentType])
	require.NotEmpty(t, attrs[AttributeTimestamp])

	t.Run("header", func(t *testing.T) {
		data, err := p.Get(context.Background(), ref+"/header")
		require.NoError(t, err)
		require.Contains(t, string(data), "blackswan-analysis.json")
	})
	t.Run("range hash", func(t *testing.T) {
		h := sha256.Sum256([]byte("data"))
		store.hashes = [][]byte{h[:]}
		data, err := p.Get(context.Background(), ref+"/hash/0|4")
		require.NoError(t, err)
		expected, err := util.Uint256DecodeBytesBE(h[:])
		require.NoError(t, err)
		require.Equal(t, `"0x`+expected.StringLE()+`"`, string(data))
	})
	t.Run("missing payload", func(t *testing.T) {
		_, err := p.Get(context.Background(), ref)
		require.ErrorIs(t, err, errNotFound)
	})
	t.Run("invalid command", func(t *testing.T) {
		_, err := p.Get(context.Background(), ref+"/delete")
		require.ErrorIs(t, err, ErrInvalidCommand)
	})
	t.Run("invalid range", func(t *testing.T) {
		_, err := p.Get(context.Background(), ref+"/range")
		require.ErrorIs(t, err, ErrInvalidRange)
	})
}

func TestPublishError(t *testing.T) {
	p, store := newTestPublisher(t)
	store.putErr = errors.New("node is down")

	_, err := p.Publish(context.Background(), "x.json", []byte("{}"))
	require.ErrorIs(t, err, store.putErr)
}

func TestClose(t *testing.T) {
	p, _ := newTestPublisher(t)
	p.Close()

	var calls int
	p.closer = func() error {
		calls++
		return errors.New("connection reset")
	}
	p.Close()
	require.Equal(t, 1, calls)
}
