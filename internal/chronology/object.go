package chronology

import (
	"io"

	"github.com/iamNilotpal/mffchron/internal/serialize"
)

// OutpointState distinguishes how an input of a transaction object is
// represented on the wire: by a prior object id, by hash only, or as
// already settled in the chain.
type OutpointState uint8

const (
	OutpointUnknown OutpointState = iota
	OutpointKnown
	OutpointConfirmed
	OutpointCoinbase
)

// Outpoint is one input of a transaction object.
type Outpoint struct {
	InputHash   serialize.Hash
	OutputIndex uint32
	State       OutpointState
	KnownID     uint64 // valid when State == OutpointKnown
}

// Location is the mempool mirror's transient classification of an object;
// it is never persisted.
type Location uint8

const (
	LocationInMempool Location = iota
	LocationConfirmed
	LocationDiscarded
	LocationInvalid
)

// Object is the full recorded form of one transaction, matching the
// attributes spec'd for the log's transaction record.
type Object struct {
	SID     uint64 // byte offset this object was first stored at; 0 == unassigned
	Hash    serialize.Hash
	Weight  uint64
	Fee     uint64
	Inputs  []Outpoint
	Outputs []uint64

	Location   Location // transient, not serialized
	CoolHeight uint32   // transient, not serialized; 0 == live

	clusterID uint32 // which cluster SID is relative to; zero value valid for cluster 0
}

// writeObject serializes o's full payload: hash, weight, fee, inputs,
// outputs. SID and the transient fields are never written — SID is the
// position the caller writes at, and Location/CoolHeight are mempool-mirror
// bookkeeping reconstructed on replay.
func writeObject(w io.Writer, o *Object) error {
	if _, err := serialize.WriteHash(w, o.Hash); err != nil {
		return err
	}
	if _, err := serialize.WriteVarint(w, o.Weight); err != nil {
		return err
	}
	if _, err := serialize.WriteVarint(w, o.Fee); err != nil {
		return err
	}

	if _, err := serialize.WriteCompactSize(w, uint64(len(o.Inputs))); err != nil {
		return err
	}
	for _, in := range o.Inputs {
		if err := writeOutpoint(w, in); err != nil {
			return err
		}
	}

	if _, err := serialize.WriteCompactSize(w, uint64(len(o.Outputs))); err != nil {
		return err
	}
	for _, amount := range o.Outputs {
		if _, err := serialize.WriteVarint(w, amount); err != nil {
			return err
		}
	}
	return nil
}

// readObject deserializes the payload written by writeObject. SID is left
// zero; the caller sets it to the position reading began at.
func readObject(r io.Reader) (*Object, error) {
	br := asByteReader(r)

	hash, err := serialize.ReadHash(r)
	if err != nil {
		return nil, err
	}
	weight, err := serialize.ReadVarint(br)
	if err != nil {
		return nil, err
	}
	fee, err := serialize.ReadVarint(br)
	if err != nil {
		return nil, err
	}

	inCount, err := serialize.ReadCompactSize(r)
	if err != nil {
		return nil, err
	}
	inputs := make([]Outpoint, inCount)
	for i := range inputs {
		in, err := readOutpoint(r)
		if err != nil {
			return nil, err
		}
		inputs[i] = in
	}

	outCount, err := serialize.ReadCompactSize(r)
	if err != nil {
		return nil, err
	}
	outputs := make([]uint64, outCount)
	for i := range outputs {
		amount, err := serialize.ReadVarint(br)
		if err != nil {
			return nil, err
		}
		outputs[i] = amount
	}

	return &Object{Hash: hash, Weight: weight, Fee: fee, Inputs: inputs, Outputs: outputs}, nil
}

// writeOutpoint writes one input: a state byte, then either the known id
// (varint) or the raw input hash plus output index, depending on state.
func writeOutpoint(w io.Writer, o Outpoint) error {
	if _, err := w.Write([]byte{byte(o.State)}); err != nil {
		return err
	}
	if o.State == OutpointKnown {
		_, err := serialize.WriteVarint(w, o.KnownID)
		return err
	}
	if _, err := serialize.WriteHash(w, o.InputHash); err != nil {
		return err
	}
	_, err := serialize.WriteVarint(w, uint64(o.OutputIndex))
	return err
}

func readOutpoint(r io.Reader) (Outpoint, error) {
	br := asByteReader(r)

	var stateBuf [1]byte
	if _, err := io.ReadFull(r, stateBuf[:]); err != nil {
		return Outpoint{}, err
	}
	state := OutpointState(stateBuf[0])

	if state == OutpointKnown {
		id, err := serialize.ReadVarint(br)
		if err != nil {
			return Outpoint{}, err
		}
		return Outpoint{State: state, KnownID: id}, nil
	}

	hash, err := serialize.ReadHash(r)
	if err != nil {
		return Outpoint{}, err
	}
	index, err := serialize.ReadVarint(br)
	if err != nil {
		return Outpoint{}, err
	}
	return Outpoint{State: state, InputHash: hash, OutputIndex: uint32(index)}, nil
}
