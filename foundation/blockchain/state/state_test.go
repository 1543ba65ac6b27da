package state_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medledger/blockchain/foundation/blockchain/database"
	"github.com/medledger/blockchain/foundation/blockchain/digest"
	"github.com/medledger/blockchain/foundation/blockchain/genesis"
	"github.com/medledger/blockchain/foundation/blockchain/merkle"
	"github.com/medledger/blockchain/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func newState(t *testing.T) *state.State {
	t.Helper()

	gen := genesis.Genesis{
		Date:            time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		ChainID:         29,
		TransPerBlock:   4,
		Difficulty:      1,
		MaxMineAttempts: 1_000_000,
	}

	st, err := state.New(state.Config{Genesis: gen})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct state: %v", failed, err)
	}
	return st
}

func submit(t *testing.T, st *state.State, ids ...string) {
	t.Helper()

	for _, id := range ids {
		tx, err := database.NewTx(id, "prescription", digest.HashData([]byte(id)))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct record %q: %v", failed, id, err)
		}
		st.SubmitRecord(tx)
	}
}

// =============================================================================

func Test_LifeCycle(t *testing.T) {
	t.Log("Given the need to run records through the full mining lifecycle.")
	{
		st := newState(t)

		if _, err := st.MineNewBlock(context.Background()); !errors.Is(err, state.ErrNoTransactions) {
			t.Errorf("\t%s\tShould refuse to mine with an empty mempool, got %v.", failed, err)
		} else {
			t.Logf("\t%s\tShould refuse to mine with an empty mempool.", success)
		}

		submit(t, st, "REC-1", "REC-2", "REC-3")
		if l := st.QueryMempoolLength(); l != 3 {
			t.Fatalf("\t%s\tShould have 3 pending records, got %d.", failed, l)
		}

		report, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to mine a block.", success)

		if report.Block.Header.Number != 1 {
			t.Errorf("\t%s\tShould mine block number 1, got %d.", failed, report.Block.Header.Number)
		}
		if report.Block.Header.TransCount != 3 {
			t.Errorf("\t%s\tShould carry 3 records, got %d.", failed, report.Block.Header.TransCount)
		}
		if l := st.QueryMempoolLength(); l != 0 {
			t.Errorf("\t%s\tShould drain the mempool, got %d.", failed, l)
		} else {
			t.Logf("\t%s\tShould drain the mempool.", success)
		}

		if report.GPU.Throughput <= report.CPU.Throughput {
			t.Errorf("\t%s\tShould model faster GPU throughput for the search.", failed)
		} else {
			t.Logf("\t%s\tShould model faster GPU throughput for the search.", success)
		}
		if report.Improvement <= 1 {
			t.Errorf("\t%s\tShould report an improvement factor above 1, got %v.", failed, report.Improvement)
		}

		vr := st.ValidateChain()
		if !vr.Valid {
			t.Errorf("\t%s\tShould validate the chain: blk[%d] %s.", failed, vr.Index, vr.Reason)
		} else {
			t.Logf("\t%s\tShould validate the chain.", success)
		}

		stats := st.Stats()
		if stats.Height != 1 || !stats.Valid || stats.LatestHash != report.Block.Hash {
			t.Errorf("\t%s\tShould report matching chain stats, got %+v.", failed, stats)
		} else {
			t.Logf("\t%s\tShould report matching chain stats.", success)
		}
	}
}

func Test_Proofs(t *testing.T) {
	t.Log("Given the need to prove a record is part of a mined block.")
	{
		st := newState(t)
		submit(t, st, "REC-1", "REC-2", "REC-3")

		report, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}

		for i := 0; i < report.Block.Header.TransCount; i++ {
			proof, err := st.GenerateProof(1, i)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to generate a proof for leaf %d: %v", failed, i, err)
			}
			if !st.VerifyProof(proof) {
				t.Errorf("\t%s\tShould verify the proof for leaf %d.", failed, i)
			}
		}
		t.Logf("\t%s\tShould generate and verify a proof for every record.", success)

		if _, err := st.GenerateProof(1, 3); !errors.Is(err, merkle.ErrIndexOutOfRange) {
			t.Errorf("\t%s\tShould reject a proof request past the leaf count, got %v.", failed, err)
		} else {
			t.Logf("\t%s\tShould reject a proof request past the leaf count.", success)
		}

		ok, err := st.VerifyBlockRoot(1)
		if err != nil || !ok {
			t.Errorf("\t%s\tShould re-verify the stored merkle root, got ok[%v] err[%v].", failed, ok, err)
		} else {
			t.Logf("\t%s\tShould re-verify the stored merkle root.", success)
		}
	}
}

func Test_MempoolCap(t *testing.T) {
	t.Log("Given the need to cap a block at the configured record count.")
	{
		st := newState(t)
		submit(t, st, "REC-1", "REC-2", "REC-3", "REC-4", "REC-5", "REC-6")

		report, err := st.MineNewBlock(context.Background())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
		}

		if report.Block.Header.TransCount != 4 {
			t.Errorf("\t%s\tShould mine the configured 4 records, got %d.", failed, report.Block.Header.TransCount)
		} else {
			t.Logf("\t%s\tShould mine the configured 4 records.", success)
		}
		if l := st.QueryMempoolLength(); l != 2 {
			t.Errorf("\t%s\tShould leave 2 records pending, got %d.", failed, l)
		} else {
			t.Logf("\t%s\tShould leave 2 records pending.", success)
		}
	}
}
