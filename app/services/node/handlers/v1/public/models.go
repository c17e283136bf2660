package public

import (
	"github.com/ardanlabs/blockdemo/business/sys/validate"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/database"
	"github.com/ardanlabs/blockdemo/foundation/blockchain/state"
)

type newPeer struct {
	Name string `json:"name" validate:"omitempty,max=64"`
}

func (np newPeer) Validate() error {
	return validate.Check(np)
}

type connection struct {
	To string `json:"to" validate:"required"`
}

func (c connection) Validate() error {
	return validate.Check(c)
}

type message struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
}

func (m message) Validate() error {
	return validate.Check(m)
}

type blockData struct {
	Data string `json:"data"`
}

type status struct {
	Status string `json:"status"`
}

type job struct {
	Peer   string `json:"peer"`
	Index  uint64 `json:"index"`
	ReMine bool   `json:"remine"`
	Status string `json:"status"`
}

func toJob(j state.MiningJob) job {
	return job{
		Peer:   j.Peer,
		Index:  j.Index,
		ReMine: j.ReMine,
		Status: "mining started",
	}
}

type validation struct {
	Peer   string                 `json:"peer"`
	Valid  bool                   `json:"valid"`
	Blocks []database.BlockStatus `json:"blocks"`
}

type pending struct {
	Count int `json:"count"`
}
