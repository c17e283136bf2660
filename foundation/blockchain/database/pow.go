package database

import (
	"context"
	"time"
)

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Index        uint64
	PreviousHash string
	Data         string
	EvHandler    func(v string, args ...any)
}

// GenerateNextBlock constructs the block that follows previous and performs
// the work to find a nonce that solves the POW puzzle. The search can take
// an unbounded amount of time so it can be cancelled through the context.
func GenerateNextBlock(ctx context.Context, previous Block, data string, evHandler func(v string, args ...any)) (Block, error) {
	return POW(ctx, POWArgs{
		Index:        previous.Index + 1,
		PreviousHash: previous.Hash,
		Data:         data,
		EvHandler:    evHandler,
	})
}

// POW searches for a nonce and timestamp pair that produces a hash for the
// specified fields that complies with the difficulty. This is also used to
// re-mine a block in place after its data has been tampered with.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: POW: MINING: started: blk[%d]", args.Index)
	defer ev("database: POW: MINING: completed: blk[%d]", args.Index)

	b := Block{
		Index:        args.Index,
		PreviousHash: args.PreviousHash,
		Data:         args.Data,
	}

	// Loop until we find a solution or the caller gives up on us.
	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", attempts)
		}

		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED: blk[%d]", args.Index)
			return Block{}, ctx.Err()
		}

		b.TimeStamp = time.Now().UnixMilli()
		b.Nonce++
		b.Hash = b.ComputeHash()

		if !IsValidHashDifficulty(b.Hash) {
			continue
		}

		ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PreviousHash, b.Hash, attempts)

		return b, nil
	}
}
