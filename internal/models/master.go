package models

import "time"

type JobClient struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type JobPosition struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type JobPlacement struct {
	ID             int64     `json:"id"`
	PositionID     int64     `json:"position_id"`
	Location       string    `json:"location"`
	RecruiterPhone string    `json:"recruiter_phone"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// MasterData is the full reference taxonomy.
type MasterData struct {
	Clients    []JobClient    `json:"clients"`
	Positions  []JobPosition  `json:"positions"`
	Placements []JobPlacement `json:"placements"`
}

// PublicOptions is the active subset of MasterData offered on the form.
func (m MasterData) PublicOptions() MasterData {
	out := MasterData{
		Clients:    []JobClient{},
		Positions:  []JobPosition{},
		Placements: []JobPlacement{},
	}
	activeClients := make(map[int64]bool)
	for _, c := range m.Clients {
		if c.IsActive {
			activeClients[c.ID] = true
			out.Clients = append(out.Clients, c)
		}
	}
	activePositions := make(map[int64]bool)
	for _, p := range m.Positions {
		if p.IsActive && activeClients[p.ClientID] {
			activePositions[p.ID] = true
			out.Positions = append(out.Positions, p)
		}
	}
	for _, pl := range m.Placements {
		if pl.IsActive && activePositions[pl.PositionID] {
			out.Placements = append(out.Placements, pl)
		}
	}
	return out
}
