package models

// TurnRecord is the immutable log entry for one resolved turn.
type TurnRecord struct {
	Turn           int     `json:"turn"`
	Bid1           int     `json:"bid1"`
	Bid2           int     `json:"bid2"`
	Balance1Before int     `json:"balance1_before"`
	Balance2Before int     `json:"balance2_before"`
	Balance1After  int     `json:"balance1_after"`
	Balance2After  int     `json:"balance2_after"`
	WinnerOrdinal  Ordinal `json:"winner_ordinal"`
	TieUsed        bool    `json:"tie_used"`
	OldPosition    int     `json:"old_position"`
	NewPosition    int     `json:"new_position"`
}
