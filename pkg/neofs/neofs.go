/*
Package neofs publishes analysis documents to NeoFS and reads them back by
neofs URI.

A reference has the form "neofs:<Container-ID>/<Object-ID>", optionally
followed by a command ("range", "header" or "hash") and its parameters.
*/
package neofs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neofs-sdk-go/client"
	cid "github.com/nspcc-dev/neofs-sdk-go/container/id"
	"github.com/nspcc-dev/neofs-sdk-go/object"
	oid "github.com/nspcc-dev/neofs-sdk-go/object/id"
	"github.com/nspcc-dev/neofs-sdk-go/user"
)

const (
	// URIScheme is the name of neofs URI scheme.
	URIScheme = "neofs"

	// rangeSep is a separator between offset and length.
	rangeSep = '|'

	rangeCmd  = "range"
	headerCmd = "header"
	hashCmd   = "hash"
)

// Various validation errors.
var (
	ErrInvalidScheme    = errors.New("invalid URI scheme")
	ErrMissingObject    = errors.New("object ID is missing from URI")
	ErrInvalidContainer = errors.New("container ID is invalid")
	ErrInvalidObject    = errors.New("object ID is invalid")
	ErrInvalidRange     = errors.New("object range is invalid (expected 'Offset|Length')")
	ErrInvalidCommand   = errors.New("invalid command")
)

// Reader is the part of NeoFS client API needed to read objects. It's
// implemented by both client.Client and pool.Pool.
type Reader interface {
	ObjectGetInit(ctx context.Context, containerID cid.ID, objectID oid.ID, signer user.Signer, prm client.PrmObjectGet) (object.Object, *client.PayloadReader, error)
	ObjectRangeInit(ctx context.Context, containerID cid.ID, objectID oid.ID, offset, length uint64, signer user.Signer, prm client.PrmObjectRange) (*client.ObjectRangeReader, error)
	ObjectHead(ctx context.Context, containerID cid.ID, objectID oid.ID, signer user.Signer, prm client.PrmObjectHead) (*object.Object, error)
	ObjectHash(ctx context.Context, containerID cid.ID, objectID oid.ID, signer user.Signer, prm client.PrmObjectHash) ([][]byte, error)
}

// Ref returns neofs URI of the object.
func Ref(addr oid.Address) string {
	return URIScheme + ":" + addr.Container().EncodeToString() + "/" + addr.Object().EncodeToString()
}

// ParseURI returns object address and command parameters of the neofs URI.
func ParseURI(s string) (oid.Address, []string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return oid.Address{}, nil, fmt.Errorf("%w: %w", ErrInvalidScheme, err)
	}
	addr, ps, err := parseNeoFSURL(u)
	if err != nil {
		return oid.Address{}, nil, err
	}
	return *addr, ps, nil
}

// Get returns the contents of neofs object referenced by uri, the result is
// limited by maxSize bytes. If no command is given, full payload is returned.
func Get(ctx context.Context, c Reader, s user.Signer, uri string, maxSize int) ([]byte, error) {
	addr, ps, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	var rc io.ReadCloser
	switch {
	case len(ps) == 0 || ps[0] == "":
		rc, err = getPayload(ctx, s, c, addr)
	case ps[0] == rangeCmd:
		rc, err = getRange(ctx, s, c, addr, ps[1:]...)
	case ps[0] == headerCmd:
		rc, err = getHeader(ctx, s, c, addr)
	case ps[0] == hashCmd:
		rc, err = getHash(ctx, s, c, addr, ps[1:]...)
	default:
		return nil, ErrInvalidCommand
	}
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, int64(maxSize)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxSize {
		return nil, fmt.Errorf("object is bigger than %d bytes", maxSize)
	}
	return checkUTF8(data)
}

// parseNeoFSURL returns parsed neofs address.
func parseNeoFSURL(u *url.URL) (*oid.Address, []string, error) {
	if u.Scheme != URIScheme {
		return nil, nil, ErrInvalidScheme
	}

	ps := strings.Split(u.Opaque, "/")
	if len(ps) < 2 {
		return nil, nil, ErrMissingObject
	}

	var containerID cid.ID
	if err := containerID.DecodeString(ps[0]); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidContainer, err)
	}

	var objectID oid.ID
	if err := objectID.DecodeString(ps[1]); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidObject, err)
	}

	objectAddr := new(oid.Address)
	objectAddr.SetContainer(containerID)
	objectAddr.SetObject(objectID)
	return objectAddr, ps[2:], nil
}

func getPayload(ctx context.Context, s user.Signer, c Reader, addr oid.Address) (io.ReadCloser, error) {
	_, rc, err := c.ObjectGetInit(ctx, addr.Container(), addr.Object(), s, client.PrmObjectGet{})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func getRange(ctx context.Context, s user.Signer, c Reader, addr oid.Address, ps ...string) (io.ReadCloser, error) {
	if len(ps) == 0 {
		return nil, ErrInvalidRange
	}
	offset, length, err := parseRange(ps[0])
	if err != nil {
		return nil, err
	}
	rc, err := c.ObjectRangeInit(ctx, addr.Container(), addr.Object(), offset, length, s, client.PrmObjectRange{})
	if err != nil {
		return nil, err
	}
	return rc, nil
}

func getHeader(ctx context.Context, s user.Signer, c Reader, addr oid.Address) (io.ReadCloser, error) {
	obj, err := c.ObjectHead(ctx, addr.Container(), addr.Object(), s, client.PrmObjectHead{})
	if err != nil {
		return nil, err
	}
	res, err := obj.MarshalHeaderJSON()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(res)), nil
}

func getHash(ctx context.Context, s user.Signer, c Reader, addr oid.Address, ps ...string) (io.ReadCloser, error) {
	if len(ps) == 0 || ps[0] == "" { // hash of the full payload
		obj, err := c.ObjectHead(ctx, addr.Container(), addr.Object(), s, client.PrmObjectHead{})
		if err != nil {
			return nil, err
		}
		sum, ok := obj.PayloadChecksum()
		if !ok {
			return nil, errors.New("missing checksum in the reply")
		}
		return marshalHash(sum.Value())
	}
	offset, length, err := parseRange(ps[0])
	if err != nil {
		return nil, err
	}
	var prm client.PrmObjectHash
	prm.SetRangeList(offset, length)
	hashes, err := c.ObjectHash(ctx, addr.Container(), addr.Object(), s, prm)
	if err != nil {
		return nil, err
	}
	if len(hashes) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidRange)
	}
	return marshalHash(hashes[0])
}

func marshalHash(b []byte) (io.ReadCloser, error) {
	u256, err := util.Uint256DecodeBytesBE(b)
	if err != nil {
		return nil, fmt.Errorf("decode Uint256: %w", err)
	}
	res, err := u256.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(res)), nil
}

func parseRange(s string) (uint64, uint64, error) {
	sepIndex := strings.IndexByte(s, rangeSep)
	if sepIndex < 0 {
		return 0, 0, ErrInvalidRange
	}
	offset, err := strconv.ParseUint(s[:sepIndex], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid offset", ErrInvalidRange)
	}
	length, err := strconv.ParseUint(s[sepIndex+1:], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid length", ErrInvalidRange)
	}
	return offset, length, nil
}

func checkUTF8(v []byte) ([]byte, error) {
	if !utf8.Valid(v) {
		return nil, errors.New("invalid UTF-8")
	}
	return v, nil
}
