package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Outcome classifies a single insert-if-absent attempt.
type Outcome int

const (
	// OutcomeInserted means a new row was written.
	OutcomeInserted Outcome = iota
	// OutcomeAlreadyPresent means an equal row existed; nothing changed.
	OutcomeAlreadyPresent
	// OutcomeFailed means the statement errored for another reason.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeAlreadyPresent:
		return "already_present"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is the outcome of one statement; Err is set only for OutcomeFailed.
type Result struct {
	Outcome Outcome
	Err     error
}

// Tally counts outcomes.
type Tally struct {
	Inserted int
	Present  int
	Failed   int
}

// Add counts r and returns it.
func (t *Tally) Add(r Result) Result {
	switch r.Outcome {
	case OutcomeInserted:
		t.Inserted++
	case OutcomeAlreadyPresent:
		t.Present++
	default:
		t.Failed++
	}
	return r
}

// InsertIfAbsent executes st with values on ex and classifies the result.
// Duplicate-key errors are not failures: they mean the row is present.
func InsertIfAbsent(ctx context.Context, ex sqlx.ExecerContext, d Dialect, st Stmt, values ...any) Result {
	res, err := ex.ExecContext(ctx, st.SQL, st.Bind(values)...)
	if err != nil {
		if d.IsDuplicate(err) {
			return Result{Outcome: OutcomeAlreadyPresent}
		}
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Driver cannot tell; the statement itself succeeded.
		return Result{Outcome: OutcomeInserted}
	}
	if n == 0 {
		return Result{Outcome: OutcomeAlreadyPresent}
	}
	return Result{Outcome: OutcomeInserted}
}
