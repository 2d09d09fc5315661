// Package flight holds the FlightAI airline domain: ticket prices and the
// get_ticket_price tool the assistant calls.
package flight

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chris/flightai/internal/llm"
	"github.com/chris/flightai/internal/tools"
)

// UnknownPrice is returned for destinations not in the price table.
const UnknownPrice = "Unknown"

const SystemPrompt = "You are a helpful assistant for an Airline called FlightAI. " +
	"Give short, courteous answers, no more than 1 sentence. " +
	"Always be accurate. If you don't know the answer, say so."

// Prices maps a lower-cased destination to a return ticket price.
type Prices map[string]string

var DefaultPrices = Prices{
	"london": "$799",
	"paris":  "$899",
	"tokyo":  "$1,400",
	"berlin": "$499",
	"seoul":  "$1,599",
	"mars":   "$2,250,000",
}

// Lookup is total: unknown destinations yield UnknownPrice.
func (p Prices) Lookup(destination string) string {
	if price, ok := p[normalize(destination)]; ok {
		return price
	}
	return UnknownPrice
}

func GetTicketPrice(destination string) string {
	return DefaultPrices.Lookup(destination)
}

func normalize(destination string) string {
	return strings.ToLower(strings.TrimSpace(destination))
}

var PriceTool = llm.Tool{
	Name: "get_ticket_price",
	Description: "Get the price of a return ticket to the destination. Call this whenever you need to know the ticket price, " +
		"for example when a customer asks 'How much is a ticket to this city'",
	Parameters: llm.ObjectRequired(map[string]any{
		"destination": llm.Prop("string", "The city or planet that the customer wants to travel to"),
	}, "destination"),
}

// Artist produces a picture for a destination.
type Artist interface {
	GenerateImage(ctx context.Context, prompt string) (*tools.Artifact, error)
}

// ArtistPrompt is the image prompt used for a destination.
func ArtistPrompt(city string) string {
	return fmt.Sprintf("An image representing a vacation in %s, showing tourist spots and everything unique about %s, in a vibrant pop-art style", city, city)
}

type priceResult struct {
	Destination string `json:"destination"`
	Price       string `json:"price"`
}

// PriceHandler answers get_ticket_price from prices. When artist is non-nil
// it also draws the destination; a drawing failure only drops the image.
func PriceHandler(prices Prices, artist Artist) tools.Handler {
	return func(ctx context.Context, args map[string]any) (*tools.Result, error) {
		destination, _ := args["destination"].(string)
		price := prices.Lookup(destination)
		slog.Info("tool get_ticket_price called", "destination", destination, "price", price)

		b, err := json.Marshal(priceResult{Destination: destination, Price: price})
		if err != nil {
			return nil, fmt.Errorf("encoding price result: %w", err)
		}
		res := &tools.Result{Content: string(b)}

		if artist != nil {
			img, err := artist.GenerateImage(ctx, ArtistPrompt(destination))
			if err != nil {
				slog.Warn("destination image failed", "destination", destination, "err", err)
			} else if img != nil {
				res.Artifacts = append(res.Artifacts, *img)
			}
		}
		return res, nil
	}
}

// NewRegistry returns a tool registry holding get_ticket_price.
func NewRegistry(prices Prices, artist Artist) (*tools.Registry, error) {
	r := tools.NewRegistry()
	if err := r.Register(PriceTool, PriceHandler(prices, artist)); err != nil {
		return nil, err
	}
	return r, nil
}
