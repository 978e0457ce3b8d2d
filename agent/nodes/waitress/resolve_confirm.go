package waitressnode

import (
	"errors"
	"fmt"
	"strings"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	statex "github.com/parlaplate/parlaplate/agent/state"
)

// ResolveConfirm maps a confirmation onto one shown candidate and records the
// order line. Resolution failure is a conversational outcome, not a turn
// failure: the gate falls back to its pre-turn value and the reply asks for
// clarification, so the user can simply try again.
func ResolveConfirm(in *GraphState) (*GraphState, error) {
	if in == nil || in.Session == nil {
		return nil, fmt.Errorf("%w: graph session is nil", contractx.ErrValidation)
	}

	cand, err := in.Session.ResolveReference(in.Text)
	if err != nil {
		// A closing confirmation ("that's all, thanks") names no new dish;
		// with lines already on the order that is a wrap-up, not a miss.
		// If the classifier pulled keywords out of the message ("add a pizza
		// too, that's all") the user still wants something, so ask instead
		// of silently dropping it.
		if in.Decision.Finalize && len(in.Session.PendingOrder) > 0 &&
			len(in.Decision.Query.Keywords) == 0 && !errors.Is(err, statex.ErrAmbiguousReference) {
			in.OrderReady = true
			in.Reply = "Perfect. I'll send the whole order to the kitchen right away."
			return in, nil
		}
		if errors.Is(err, statex.ErrNoCandidates) ||
			errors.Is(err, statex.ErrReferenceNotFound) ||
			errors.Is(err, statex.ErrAmbiguousReference) {
			in.Session.Gate = in.PriorGate
			in.OrderReady = false
			in.Reply = clarifyReference(in.Session.Candidates, err)
			return in, nil
		}
		return nil, fmt.Errorf("%w: %v", contractx.ErrInvalidReference, err)
	}

	in.Session.AddToOrder(cand, 1)

	if in.Decision.Finalize {
		in.OrderReady = true
		in.Reply = fmt.Sprintf("%s it is, %.2f. I'll send the whole order to the kitchen right away.", cand.Name, cand.Price)
		return in, nil
	}

	in.Reply = fmt.Sprintf("One %s, %.2f, noted. Anything else before I send it to the kitchen?", cand.Name, cand.Price)
	return in, nil
}

func clarifyReference(cands []statex.Candidate, cause error) string {
	if len(cands) == 0 {
		return "I haven't shown you any dishes yet. Tell me what you're in the mood for and I'll suggest something."
	}

	var b strings.Builder
	if errors.Is(cause, statex.ErrAmbiguousReference) {
		b.WriteString("A couple of dishes match that. Which one did you mean?")
	} else {
		b.WriteString("I'm not sure which dish you meant. These were the options:")
	}
	for i, c := range cands {
		fmt.Fprintf(&b, "\n%d. %s (%.2f)", i+1, c.Name, c.Price)
	}
	return b.String()
}
