package ops

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/novabite/assistant/agent/contract"
)

const (
	ToolCheckAvailability = "check_table_availability"
	ToolBookTable         = "book_table"
	ToolGetSpecial        = "get_today_special"
	ToolCheckLoyalty      = "check_loyalty_points"

	defaultPartySize = 2
)

// Catalog describes the four operations exposed to the tool-calling model.
func Catalog() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolCheckAvailability,
			Desc: "Check table availability at a NovaBite branch. Date format: YYYY-MM-DD. Time format: HH:MM.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"date":   {Type: schema.String, Desc: "Reservation date, YYYY-MM-DD", Required: true},
				"time":   {Type: schema.String, Desc: "Reservation time, HH:MM", Required: true},
				"branch": {Type: schema.String, Desc: "Branch name: downtown, marina, or uptown", Required: true},
			}),
		},
		{
			Name: ToolBookTable,
			Desc: "Book a table at a NovaBite branch. Date format: YYYY-MM-DD. Time format: HH:MM.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"name":       {Type: schema.String, Desc: "Name the booking is under", Required: true},
				"date":       {Type: schema.String, Desc: "Reservation date, YYYY-MM-DD", Required: true},
				"time":       {Type: schema.String, Desc: "Reservation time, HH:MM", Required: true},
				"branch":     {Type: schema.String, Desc: "Branch name: downtown, marina, or uptown", Required: true},
				"party_size": {Type: schema.Integer, Desc: "Number of guests, defaults to 2"},
			}),
		},
		{
			Name: ToolGetSpecial,
			Desc: "Get today's special dishes at a NovaBite branch.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"branch": {Type: schema.String, Desc: "Branch name: downtown, marina, or uptown", Required: true},
			}),
		},
		{
			Name: ToolCheckLoyalty,
			Desc: "Check a customer's Nova Rewards loyalty points balance and tier.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_id": {Type: schema.String, Desc: "Loyalty account id, e.g. USR001", Required: true},
			}),
		},
	}
}

// Gateway executes operation calls against a Store and renders the outcome
// as user-facing text. Domain misses (unknown branch, unknown account, not
// enough seats) are reported as text, never as errors.
type Gateway struct {
	store Store
	now   func() time.Time
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(store Store, now func() time.Time) (*Gateway, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: ops store is required", contractx.ErrValidation)
	}
	if now == nil {
		now = time.Now
	}
	return &Gateway{store: store, now: now}, nil
}

func (g *Gateway) Execute(ctx context.Context, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		result := g.execute(ctx, req)
		log.Debug().Str("tool", req.Tool).Str("output", result.Output).Str("error", result.Error).Msg("tool executed")
		results = append(results, result)
	}
	return results, nil
}

func (g *Gateway) execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	switch req.Tool {
	case ToolCheckAvailability:
		return g.checkAvailability(ctx, req)
	case ToolBookTable:
		return g.bookTable(ctx, req)
	case ToolGetSpecial:
		return g.todaySpecial(ctx, req)
	case ToolCheckLoyalty:
		return g.loyaltyPoints(ctx, req)
	default:
		return contractx.ToolResult{
			Tool:  req.Tool,
			Error: fmt.Sprintf("tool=%s is not available", req.Tool),
		}
	}
}

func (g *Gateway) checkAvailability(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	date, timeSlot, branch := stringArg(req.Args, "date"), stringArg(req.Args, "time"), stringArg(req.Args, "branch")

	avail, err := g.store.Availability(ctx, date, timeSlot, branch)
	if errors.Is(err, ErrUnknownBranch) {
		return ok(req.Tool, branchNotFound(branch))
	}
	if err != nil {
		return fail(req.Tool, err)
	}

	if avail.Remaining <= 0 {
		return ok(req.Tool, fmt.Sprintf(
			"No tables available at NovaBite %s on %s at %s. Please try a different time.",
			titleCase(branch), date, timeSlot))
	}
	return ok(req.Tool, fmt.Sprintf(
		"%d seat(s) available at NovaBite %s on %s at %s.",
		avail.Remaining, titleCase(branch), date, timeSlot))
}

func (g *Gateway) bookTable(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	name := stringArg(req.Args, "name")
	date, timeSlot, branch := stringArg(req.Args, "date"), stringArg(req.Args, "time"), stringArg(req.Args, "branch")
	partySize := intArg(req.Args, "party_size", defaultPartySize)

	booking, err := g.store.Book(ctx, BookingRequest{
		Name:      name,
		Date:      date,
		Time:      timeSlot,
		Branch:    branch,
		PartySize: partySize,
	})

	var capErr *CapacityError
	switch {
	case errors.Is(err, ErrUnknownBranch):
		return ok(req.Tool, branchNotFound(branch))
	case errors.As(err, &capErr):
		return ok(req.Tool, fmt.Sprintf(
			"Not enough seats for %d at NovaBite %s on %s at %s. Only %d seat(s) left.",
			partySize, titleCase(branch), date, timeSlot, capErr.Remaining))
	case err != nil:
		return fail(req.Tool, err)
	}

	return ok(req.Tool, fmt.Sprintf(
		"Booking confirmed! ID: %s. Table for %d under %s at NovaBite %s on %s at %s.",
		booking.ID, booking.PartySize, booking.Name, titleCase(branch), booking.Date, booking.Time))
}

func (g *Gateway) todaySpecial(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	branch := stringArg(req.Args, "branch")

	special, err := g.store.Special(ctx, branch)
	if errors.Is(err, ErrUnknownBranch) {
		return ok(req.Tool, branchNotFound(branch))
	}
	if err != nil {
		return fail(req.Tool, err)
	}

	today := g.now().Format("Monday, 02 January 2006")
	return ok(req.Tool, fmt.Sprintf(
		"Today's specials at NovaBite %s (%s):\n  Starter: %s\n  Main:    %s\n  Dessert: %s",
		titleCase(branch), today, special.Starter, special.Main, special.Dessert))
}

func (g *Gateway) loyaltyPoints(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	userID := stringArg(req.Args, "user_id")

	account, err := g.store.Loyalty(ctx, userID)
	if errors.Is(err, ErrNoAccount) {
		return ok(req.Tool, fmt.Sprintf("No account found for ID '%s'.", userID))
	}
	if err != nil {
		return fail(req.Tool, err)
	}

	return ok(req.Tool, fmt.Sprintf(
		"%s has %d Nova Rewards points (%s tier). Benefit: %s.",
		account.Name, account.Points, account.Tier, TierBenefits[account.Tier]))
}

func ok(tool, output string) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Output: output}
}

func fail(tool string, err error) contractx.ToolResult {
	return contractx.ToolResult{Tool: tool, Error: err.Error()}
}

func branchNotFound(branch string) string {
	return fmt.Sprintf("Branch '%s' not found. Available branches: %s.",
		branch, strings.Join(BranchNames, ", "))
}

func stringArg(args map[string]any, key string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func intArg(args map[string]any, key string, fallback int) int {
	if args == nil {
		return fallback
	}
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// titleCase uppercases the first letter of each word, matching the branch
// names used in user-facing messages.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
