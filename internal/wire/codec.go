// Package wire implements the self-describing binary payload format
// carried inside each frame (see internal/frame): Request and Response
// records, with their nested Person and Credentials fields, round-trip
// through Encode*/Decode* with decode(encode(x)) == x for every
// well-typed x. Malformed input yields an error wrapping errs.ErrDecode
// rather than a panic or a silently wrong value.
package wire

import (
	"fmt"
	"time"

	"github.com/nikshvein/personhub/internal/domain"
	"github.com/nikshvein/personhub/internal/errs"
)

// EncodeRequest serialises a Request to its wire payload.
func EncodeRequest(req domain.Request) []byte {
	w := &writer{}
	w.writeString(req.Command)

	w.writeCount(len(req.Args))
	for _, a := range req.Args {
		w.writeString(a)
	}

	w.writeCount(len(req.Persons))
	for _, p := range req.Persons {
		encodePerson(w, p)
	}

	w.writeString(req.Credentials.Username)
	w.writeString(req.Credentials.Password)

	return w.bytes()
}

// DecodeRequest parses payload into a Request, or returns an
// errs.ErrDecode-wrapped error.
func DecodeRequest(payload []byte) (domain.Request, error) {
	r := newReader(payload)
	var req domain.Request

	cmd, err := r.readString()
	if err != nil {
		return req, err
	}
	req.Command = cmd

	argCount, err := r.readCount()
	if err != nil {
		return req, err
	}
	req.Args = make([]string, argCount)
	for i := range req.Args {
		req.Args[i], err = r.readString()
		if err != nil {
			return req, err
		}
	}

	personCount, err := r.readCount()
	if err != nil {
		return req, err
	}
	req.Persons = make([]domain.Person, personCount)
	for i := range req.Persons {
		req.Persons[i], err = decodePerson(r)
		if err != nil {
			return req, err
		}
	}

	if req.Credentials.Username, err = r.readString(); err != nil {
		return req, err
	}
	if req.Credentials.Password, err = r.readString(); err != nil {
		return req, err
	}

	if err := r.requireExhausted(); err != nil {
		return req, err
	}
	return req, nil
}

// EncodeResponse serialises a Response to its wire payload.
func EncodeResponse(resp domain.Response) []byte {
	w := &writer{}
	w.writeString(resp.Message)

	w.writeCount(len(resp.Persons))
	for _, p := range resp.Persons {
		encodePerson(w, p)
	}

	w.writeString(resp.Script)
	return w.bytes()
}

// DecodeResponse parses payload into a Response, or returns an
// errs.ErrDecode-wrapped error.
func DecodeResponse(payload []byte) (domain.Response, error) {
	r := newReader(payload)
	var resp domain.Response

	msg, err := r.readString()
	if err != nil {
		return resp, err
	}
	resp.Message = msg

	count, err := r.readCount()
	if err != nil {
		return resp, err
	}
	resp.Persons = make([]domain.Person, count)
	for i := range resp.Persons {
		resp.Persons[i], err = decodePerson(r)
		if err != nil {
			return resp, err
		}
	}

	if resp.Script, err = r.readString(); err != nil {
		return resp, err
	}

	if err := r.requireExhausted(); err != nil {
		return resp, err
	}
	return resp, nil
}

func encodePerson(w *writer, p domain.Person) {
	w.writeInt64(p.ID)
	w.writeInt64(p.OwnerID)
	w.writeString(p.Name)

	w.writeInt64(int64(p.Coordinates.X))
	w.writeInt64(int64(p.Coordinates.Y))

	w.writeInt64(p.CreationDate.Unix())

	w.writeInt64(int64(p.Height))
	w.writeInt64(int64(p.Weight))
	w.writeString(string(p.HairColor))
	w.writeString(string(p.Nationality))

	w.writeFloat64(p.Location.X)
	w.writePresent(p.Location.HasY)
	if p.Location.HasY {
		w.writeFloat64(p.Location.Y)
	}
	w.writeString(p.Location.Name)
}

func decodePerson(r *reader) (domain.Person, error) {
	var p domain.Person
	var err error

	if p.ID, err = r.readInt64(); err != nil {
		return p, err
	}
	if p.OwnerID, err = r.readInt64(); err != nil {
		return p, err
	}
	if p.Name, err = r.readString(); err != nil {
		return p, err
	}

	x, err := r.readInt64()
	if err != nil {
		return p, err
	}
	p.Coordinates.X = int(x)
	y, err := r.readInt64()
	if err != nil {
		return p, err
	}
	p.Coordinates.Y = int(y)
	if p.Coordinates.X <= -271 {
		return p, fmt.Errorf("%w: coordinates.x must be greater than -271, got %d", errs.ErrDecode, p.Coordinates.X)
	}

	created, err := r.readInt64()
	if err != nil {
		return p, err
	}
	p.CreationDate = time.Unix(created, 0).UTC()

	height, err := r.readInt64()
	if err != nil {
		return p, err
	}
	p.Height = int(height)
	weight, err := r.readInt64()
	if err != nil {
		return p, err
	}
	p.Weight = int(weight)

	hair, err := r.readString()
	if err != nil {
		return p, err
	}
	p.HairColor = domain.HairColor(hair)
	if !domain.ValidHairColor(p.HairColor) {
		return p, fmt.Errorf("%w: invalid hair color %q", errs.ErrDecode, hair)
	}

	nat, err := r.readString()
	if err != nil {
		return p, err
	}
	p.Nationality = domain.Nationality(nat)
	if !domain.ValidNationality(p.Nationality) {
		return p, fmt.Errorf("%w: invalid nationality %q", errs.ErrDecode, nat)
	}

	if p.Location.X, err = r.readFloat64(); err != nil {
		return p, err
	}
	if p.Location.HasY, err = r.readPresent(); err != nil {
		return p, err
	}
	if p.Location.HasY {
		if p.Location.Y, err = r.readFloat64(); err != nil {
			return p, err
		}
	}
	if p.Location.Name, err = r.readString(); err != nil {
		return p, err
	}

	return p, nil
}
