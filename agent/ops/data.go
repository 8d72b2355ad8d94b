package ops

// Seed data for the in-memory store and the bun store's bootstrap.
// Reservation counts are seats already committed at each slot.

func seedReservations() map[string]map[string]map[string]int {
	return map[string]map[string]map[string]int{
		"downtown": {
			"2025-12-25": {"18:00": 20, "19:00": 8, "20:00": 0},
			"2025-12-26": {"18:00": 0, "19:00": 4, "20:00": 12},
		},
		"marina": {
			"2025-12-25": {"18:00": 20, "19:00": 20, "20:00": 6},
			"2025-12-26": {"18:00": 10, "19:00": 0, "20:00": 0},
		},
		"uptown": {
			"2025-12-25": {"18:00": 0, "19:00": 5, "20:00": 20},
			"2025-12-26": {"18:00": 0, "19:00": 0, "20:00": 8},
		},
	}
}

func seedSpecials() map[string]Special {
	return map[string]Special{
		"downtown": {
			Branch:  "downtown",
			Starter: "Lobster Bisque $16",
			Main:    "Braised Lamb Shank $38",
			Dessert: "Pistachio Panna Cotta $12",
		},
		"marina": {
			Branch:  "marina",
			Starter: "Grilled Octopus $19",
			Main:    "Barramundi en Papillote $32",
			Dessert: "Salted Caramel Tart $11",
		},
		"uptown": {
			Branch:  "uptown",
			Starter: "Burrata and Heirloom Tomatoes $15",
			Main:    "Duck Confit $36",
			Dessert: "Dark Chocolate Mousse $13",
		},
	}
}

func seedLoyalty() map[string]Account {
	return map[string]Account{
		"USR001": {ID: "USR001", Name: "Alice Chen", Points: 1240, Tier: "Platinum"},
		"USR002": {ID: "USR002", Name: "Bob Malik", Points: 480, Tier: "Silver"},
		"USR003": {ID: "USR003", Name: "Carol Singh", Points: 720, Tier: "Gold"},
		"USR004": {ID: "USR004", Name: "David Youssef", Points: 150, Tier: "Silver"},
		"USR005": {ID: "USR005", Name: "Sara El-Amin", Points: 995, Tier: "Gold"},
	}
}

// TierBenefits maps a loyalty tier to its benefit line.
var TierBenefits = map[string]string{
	"Silver":   "10% discount on food",
	"Gold":     "15% discount + free dessert monthly",
	"Platinum": "20% discount + priority reservations + free birthday meal",
}

// BranchNames lists the recognized branches in the order used by user-facing
// messages.
var BranchNames = []string{"downtown", "marina", "uptown"}
