// Package gate implements the decision gate: the classify-and-transition step
// that decides, before any menu access, how a turn may proceed.
package gate

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

// Decision is the gate's typed outcome for one turn.
type Decision struct {
	Intent      contractx.Intent
	NextGate    statex.GateState
	DirectReply string
	Query       contractx.Query
	Finalize    bool
}

// Transition is the pure gate-state table. CONFIRM lands on ORDER_PENDING
// unless the turn finalizes the whole order; OTHER leaves the gate untouched.
func Transition(current statex.GateState, intent contractx.Intent, finalize bool) statex.GateState {
	switch intent {
	case contractx.IntentClarifyNeeded:
		return statex.GateAwaitingClarification
	case contractx.IntentDelegate:
		return statex.GateDelegated
	case contractx.IntentClear:
		return statex.GateOpen
	case contractx.IntentConfirm:
		if finalize {
			return statex.GateClosed
		}
		return statex.GateOrderPending
	default:
		return current
	}
}

// Decide runs the classification call and folds its result through the
// transition table. Fail-closed: any classifier error or schema violation
// yields an OTHER decision with the gate unchanged, alongside the error.
// The gate never defaults to a menu-granting state.
func Decide(
	ctx context.Context,
	classifier contractx.Classifier,
	req contractx.ClassifyRequest,
) (Decision, error) {
	closed := Decision{Intent: contractx.IntentOther, NextGate: req.Gate}

	res, err := classifier.Classify(ctx, req)
	if err != nil {
		return closed, fmt.Errorf("%w: %v", contractx.ErrClassification, err)
	}

	if !res.Intent.Known() {
		return closed, fmt.Errorf("%w: unknown intent %q", contractx.ErrClassification, res.Intent)
	}

	// Tie-break: a delegating message that also carries explicit constraints
	// classifies as INTENT_CLEAR, because constraints exist to honor.
	if res.Intent == contractx.IntentDelegate && res.Query.HasConstraints() {
		res.Intent = contractx.IntentClear
	}

	// Intents that never open the menu must ship a reply of their own.
	if !res.Intent.GrantsMenuAccess() && res.Intent != contractx.IntentConfirm {
		if strings.TrimSpace(res.DirectReply) == "" {
			return closed, fmt.Errorf("%w: intent %s requires a direct reply", contractx.ErrClassification, res.Intent)
		}
	}

	return Decision{
		Intent:      res.Intent,
		NextGate:    Transition(req.Gate, res.Intent, res.Finalize),
		DirectReply: strings.TrimSpace(res.DirectReply),
		Query:       res.Query,
		Finalize:    res.Finalize,
	}, nil
}
