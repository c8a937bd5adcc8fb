package client

import (
	"context"
	"fmt"
	"net/http"
)

// LevelLabel names each clearance-gated data level.
func LevelLabel(level int) string {
	switch level {
	case 1:
		return "Level 1 - Public pesticide data"
	case 2:
		return "Level 2 - Detailed regional reports"
	case 3:
		return "Level 3 - Confidential strategic information"
	}
	return fmt.Sprintf("Level %d", level)
}

// FetchLevel retrieves the data payload for one clearance level. The server
// enforces the clearance check; 403 means insufficient clearance for this
// level, session intact.
func (c *Client) FetchLevel(ctx context.Context, level int) (LevelData, error) {
	if level < 1 || level > 3 {
		return LevelData{}, fmt.Errorf("%w: level must be 1, 2 or 3", ErrInvalidInput)
	}
	var resp LevelData
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/data/level/%d", level), nil, &resp, true); err != nil {
		return LevelData{}, err
	}
	return resp, nil
}
