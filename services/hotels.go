package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// HotelsPerPage is how many recommendations the plan shows at once.
const HotelsPerPage = 3

const notAvailable = "N/A"

type Hotel struct {
	Name        string   `json:"hotel_name"`
	Images      []string `json:"hotel_images"`
	Description string   `json:"description"`
	NightRate   string   `json:"nightrate"`
	TotalRate   string   `json:"total_rate"`
	Category    string   `json:"hotel_cat"`
	Rating      float64  `json:"rating"`
	Amenities   []string `json:"amnity"`
	CheckIn     string   `json:"chk_in"`
	CheckOut    string   `json:"chk_out"`
	Nearby      []string `json:"nearbylist"`
	Discount    string   `json:"discount"`
}

// ─── Hotel Client ─────────────────────────────────────────────────────────────

type HotelClient struct {
	gateway
}

func NewHotelClient(baseURL string, timeout time.Duration, opts ClientOptions) *HotelClient {
	return &HotelClient{gateway: newGateway("hotels", baseURL, timeout, opts)}
}

// Hotels fetches recommendations for the stay. The upstream answers with an
// array whose elements are themselves JSON-encoded strings; elements that do
// not parse are skipped.
func (c *HotelClient) Hotels(ctx context.Context, city, checkIn, checkOut string) ([]Hotel, error) {
	const op = "google_hotel_list"
	body, err := c.doRequest(ctx, op, http.MethodPost, "/google_hotel_list", map[string]string{
		"input_city": city,
		"input_dt1":  checkIn,
		"input_dt2":  checkOut,
	})
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := decodeJSON(op, body, &items); err != nil {
		return nil, err
	}
	return parseHotels(items, c.log), nil
}

func parseHotels(items []json.RawMessage, log *zap.Logger) []Hotel {
	hotels := make([]Hotel, 0, len(items))
	for i, item := range items {
		raw, err := unwrapHotel(item)
		if err != nil {
			log.Warn("skipping unparsable hotel record", zap.Int("index", i), zap.Error(err))
			continue
		}
		hotels = append(hotels, normalizeHotel(raw))
	}
	return hotels
}

// rawHotel mirrors the upstream record before normalization.
type rawHotel struct {
	Name        string          `json:"hotel_name"`
	Images      json.RawMessage `json:"hotel_images"`
	Description string          `json:"description"`
	NightRate   string          `json:"nightrate"`
	TotalRate   string          `json:"total_rate"`
	Category    string          `json:"hotel_cat"`
	Amenities   json.RawMessage `json:"amnity"`
	CheckIn     string          `json:"chk_in"`
	CheckOut    string          `json:"chk_out"`
	Nearby      json.RawMessage `json:"nearbylist"`
	Discount    string          `json:"discount"`
}

func unwrapHotel(item json.RawMessage) (rawHotel, error) {
	var h rawHotel
	var encoded string
	if err := json.Unmarshal(item, &encoded); err == nil {
		item = json.RawMessage(encoded)
	}
	if t := strings.TrimSpace(string(item)); t == "" || t == "null" {
		return h, errors.New("empty hotel record")
	}
	err := json.Unmarshal(item, &h)
	return h, err
}

func available(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && s != notAvailable
}

func orDefault(s, fallback string) string {
	if available(s) {
		return s
	}
	return fallback
}

func normalizeHotel(r rawHotel) Hotel {
	h := Hotel{
		Name:        orDefault(r.Name, "Unknown Hotel"),
		Images:      stringList(r.Images),
		Description: orDefault(r.Description, "No description available."),
		TotalRate:   orDefault(r.TotalRate, "$400"),
		Category:    r.Category,
		CheckIn:     orDefault(r.CheckIn, "Not available"),
		CheckOut:    orDefault(r.CheckOut, "Not available"),
		Nearby:      stringList(r.Nearby),
		Discount:    orDefault(r.Discount, notAvailable),
	}
	switch {
	case available(r.NightRate):
		h.NightRate = r.NightRate
	case available(r.TotalRate):
		h.NightRate = r.TotalRate
	default:
		h.NightRate = "$200/night"
	}
	if strings.TrimSpace(h.Category) == "" {
		h.Category = "4.0"
	}
	h.Rating = parseRating(h.Category)

	h.Amenities = amenities(r.Amenities)
	if h.Images == nil {
		h.Images = []string{}
	}
	if h.Nearby == nil {
		h.Nearby = []string{}
	}
	return h
}

// amenities accepts a list or a ", "-separated string.
func amenities(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil && list != nil {
		out := make([]string, 0, len(list))
		for _, a := range list {
			if available(a) {
				out = append(out, strings.TrimSpace(a))
			}
		}
		return out
	}
	var s string
	if json.Unmarshal(raw, &s) == nil && available(s) {
		var out []string
		for _, a := range strings.Split(s, ", ") {
			if strings.TrimSpace(a) != "" {
				out = append(out, strings.TrimSpace(a))
			}
		}
		return out
	}
	return []string{"No amenities listed"}
}

func stringList(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) != nil {
		return nil
	}
	return list
}

// parseRating reads the leading number of labels like "4.5-star hotel".
func parseRating(category string) float64 {
	head := strings.TrimSpace(strings.SplitN(category, "-", 2)[0])
	if f, err := strconv.ParseFloat(head, 64); err == nil && f > 0 {
		return f
	}
	return 4.0
}

// PageHotels returns the 1-based page of hotels and the page count. Pages
// outside the range are clamped.
func PageHotels(hotels []Hotel, page int) ([]Hotel, int) {
	total := (len(hotels) + HotelsPerPage - 1) / HotelsPerPage
	if total == 0 {
		return []Hotel{}, 0
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}
	start := (page - 1) * HotelsPerPage
	end := start + HotelsPerPage
	if end > len(hotels) {
		end = len(hotels)
	}
	return hotels[start:end], total
}

// ─── Fallback (when the hotel service is unreachable or fails) ───────────────

func fallbackHotel(name, description, night, total, category string, amenities []string, checkIn, checkOut, nearby, discount string) Hotel {
	return Hotel{
		Name:        name,
		Images:      []string{"/api/placeholder/300/200"},
		Description: description,
		NightRate:   night,
		TotalRate:   total,
		Category:    category,
		Rating:      parseRating(category),
		Amenities:   amenities,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Nearby:      []string{nearby},
		Discount:    discount,
	}
}

// FallbackHotels returns a static list for the city, or a generic one.
func FallbackHotels(city string) []Hotel {
	cityHotels := map[string][]Hotel{
		"paris": {
			fallbackHotel("Hotel Le Marais", "Boutique rooms steps from Place des Vosges.", "$220/night", "$440", "4.6-star hotel",
				[]string{"Free Wi-Fi", "Bar", "Concierge Service"}, "3:00 PM", "12:00 PM", "Place des Vosges, Walk, 5 min", notAvailable),
			fallbackHotel("Pullman Paris Tour Eiffel", "Modern hotel with views of the Eiffel Tower.", "$280/night", "$560", "4.5-star hotel",
				[]string{"Fitness Center", "Restaurant", "Room Service"}, "3:00 PM", "12:00 PM", "Eiffel Tower, Walk, 3 min", "Best Rate"),
			fallbackHotel("Ibis Paris Montmartre", "Simple rooms close to Sacré-Cœur.", "$95/night", "$190", "4.0-star hotel",
				[]string{"Free Wi-Fi", "Bar"}, "2:00 PM", "12:00 PM", "Sacré-Cœur, Walk, 10 min", notAvailable),
		},
		"london": {
			fallbackHotel("Hilton London Tower Bridge", "Contemporary hotel by the Thames.", "$180/night", "$360", "4.4-star hotel",
				[]string{"Free Wi-Fi", "Fitness Center", "Restaurant"}, "3:00 PM", "12:00 PM", "Tower Bridge, Walk, 5 min", notAvailable),
			fallbackHotel("The Hoxton Shoreditch", "Loft-style rooms in East London.", "$165/night", "$330", "4.5-star hotel",
				[]string{"Free Wi-Fi", "Restaurant", "Bar"}, "3:00 PM", "12:00 PM", "Boxpark Shoreditch, Walk, 4 min", "Special Offer"),
			fallbackHotel("citizenM London Bankside", "Compact smart rooms near Tate Modern.", "$145/night", "$290", "4.4-star hotel",
				[]string{"Free Wi-Fi", "24-hour Canteen"}, "2:00 PM", "11:00 AM", "Tate Modern, Walk, 6 min", notAvailable),
		},
		"dubai": {
			fallbackHotel("JW Marriott Marquis", "Twin-tower hotel in Business Bay.", "$220/night", "$440", "4.6-star hotel",
				[]string{"Pool", "Spa", "Fitness Center"}, "3:00 PM", "12:00 PM", "Dubai Canal, Walk, 8 min", "Best Rate"),
			fallbackHotel("Rove Downtown", "Casual hotel facing the Burj Khalifa.", "$95/night", "$190", "4.3-star hotel",
				[]string{"Pool", "Free Wi-Fi"}, "2:00 PM", "12:00 PM", "Dubai Mall, Walk, 10 min", notAvailable),
			fallbackHotel("Atlantis The Palm", "Resort with waterpark on Palm Jumeirah.", "$380/night", "$760", "4.7-star hotel",
				[]string{"Private Beach", "Waterpark", "Spa"}, "3:00 PM", "11:00 AM", "Aquaventure, Walk, 2 min", notAvailable),
		},
		"berlin": {
			fallbackHotel("Hotel Adlon Kempinski", "Grand hotel beside the Brandenburg Gate.", "$320/night", "$640", "4.8-star hotel",
				[]string{"Spa", "Pool", "Restaurant"}, "3:00 PM", "12:00 PM", "Brandenburg Gate, Walk, 1 min", notAvailable),
			fallbackHotel("Motel One Berlin Hackescher Markt", "Design budget hotel in Mitte.", "$85/night", "$170", "4.2-star hotel",
				[]string{"Free Wi-Fi", "Bar"}, "3:00 PM", "12:00 PM", "Hackescher Markt, Walk, 2 min", notAvailable),
			fallbackHotel("Michelberger Hotel", "Creative hotel in Friedrichshain.", "$130/night", "$260", "4.5-star hotel",
				[]string{"Restaurant", "Bar", "Free Wi-Fi"}, "3:00 PM", "12:00 PM", "East Side Gallery, Walk, 8 min", "Special Offer"),
		},
		"istanbul": {
			fallbackHotel("Grand Hyatt Istanbul", "Large hotel near Taksim Square.", "$180/night", "$360", "4.7-star hotel",
				[]string{"Pool", "Spa", "Fitness Center"}, "3:00 PM", "12:00 PM", "Taksim Square, Walk, 7 min", notAvailable),
			fallbackHotel("Sultan Ahmet Palace Hotel", "Ottoman-style rooms in the old city.", "$95/night", "$190", "4.3-star hotel",
				[]string{"Free Breakfast", "Free Wi-Fi"}, "2:00 PM", "12:00 PM", "Blue Mosque, Walk, 3 min", "Best Rate"),
			fallbackHotel("The Marmara Taksim", "Tower hotel with Bosphorus views.", "$140/night", "$280", "4.4-star hotel",
				[]string{"Pool", "Restaurant", "Bar"}, "3:00 PM", "12:00 PM", "Istiklal Avenue, Walk, 2 min", notAvailable),
		},
	}

	if hotels, ok := cityHotels[strings.ToLower(strings.TrimSpace(city))]; ok {
		return hotels
	}

	// Generic fallback
	return []Hotel{
		fallbackHotel("Grand City Hotel", "Luxury hotel in the heart of downtown with amazing city views.", "$250/night", "$500", "4.7-star hotel",
			[]string{"Free Wi-Fi", "Pool", "Spa", "Fitness Center", "Free Breakfast"}, "2:00 PM", "11:00 AM", "Downtown Plaza, Walk, 5 min", "Best Rate"),
		fallbackHotel("Riverside Inn", "Charming boutique hotel located near major attractions.", "$180/night", "$360", "4.5-star hotel",
			[]string{"Restaurant", "Free Parking", "Concierge Service", "Bar", "Room Service"}, "3:00 PM", "12:00 PM", "Riverfront Park, Walk, 10 min", notAvailable),
		fallbackHotel("Urban Suites", "Modern all-suite hotel with kitchenettes, perfect for extended stays.", "$320/night", "$640", "4.8-star hotel",
			[]string{"Kitchenette", "Laundry Service", "Business Center", "Free Wi-Fi", "Pet-Friendly"}, "1:00 PM", "11:00 AM", "City Museum, Taxi, 15 min", "Special Offer"),
	}
}
