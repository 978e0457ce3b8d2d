package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	contractx "github.com/parlaplate/parlaplate/agent/contract"
	personax "github.com/parlaplate/parlaplate/agent/persona"
)

type createSessionRequest struct {
	PersonaID    string `json:"persona_id"`
	RestaurantID string `json:"restaurant_id"`
}

type messageRequest struct {
	Text string `json:"text"`
}

func (s *Server) listPersonas(ctx *fiber.Ctx) error {
	type personaView struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Emoji   string `json:"emoji"`
		Summary string `json:"summary"`
	}

	personas := personax.List()
	out := make([]personaView, 0, len(personas))
	for _, p := range personas {
		out = append(out, personaView{ID: p.ID, Name: p.Name, Emoji: p.Emoji, Summary: p.Summary})
	}
	return ctx.JSON(successBody("personas", out))
}

func (s *Server) listRestaurants(ctx *fiber.Ctx) error {
	type restaurantView struct {
		ID          string   `json:"id"`
		Name        string   `json:"name"`
		CuisineTags []string `json:"cuisine_tags,omitempty"`
		ItemCount   int      `json:"item_count"`
	}

	restaurants := s.library.List()
	out := make([]restaurantView, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, restaurantView{
			ID:          r.ID,
			Name:        r.Name,
			CuisineTags: r.CuisineTags,
			ItemCount:   len(r.Items),
		})
	}
	return ctx.JSON(successBody("restaurants", out))
}

func (s *Server) createSession(ctx *fiber.Ctx) error {
	var req createSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	st, err := s.waitress.StartSession(ctx.Context(), req.PersonaID, req.RestaurantID)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(successBody("session created", fiber.Map{
		"session_id":    st.SessionID,
		"persona_id":    st.PersonaID,
		"restaurant_id": st.RestaurantID,
		"gate":          st.Gate,
	}))
}

func (s *Server) showSession(ctx *fiber.Ctx) error {
	st, err := s.waitress.SessionView(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(successBody("session", st))
}

func (s *Server) postMessage(ctx *fiber.Ctx) error {
	var req messageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	out, err := s.waitress.HandleTurn(ctx.Context(), ctx.Params("id"), req.Text)
	if err != nil {
		return err
	}

	return ctx.JSON(successBody("reply", fiber.Map{
		"reply":       out.Reply,
		"intent":      out.Intent,
		"gate":        out.Gate,
		"shortlist":   out.Shortlist,
		"order_ready": out.OrderReady,
	}))
}

func (s *Server) exportOrder(ctx *fiber.Ctx) error {
	o, err := s.waitress.OrderExport(ctx.Context(), ctx.Params("id"))
	if err != nil {
		// An empty pending order means nothing has been confirmed yet.
		if errors.Is(err, contractx.ErrValidation) {
			return fiber.NewError(fiber.StatusNotFound, "no order on this session yet")
		}
		return err
	}
	return ctx.JSON(successBody("order", o))
}
