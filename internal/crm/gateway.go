// Package crm talks to the external CRM that owns leads and staff.
package crm

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// Record is an untrusted JSON object returned by the CRM.
type Record map[string]any

// Gateway is the capability set the rest of the service consumes. Any
// implementation (HTTP, cached, stub) is substitutable.
type Gateway interface {
	ListLeads(ctx context.Context) ([]Record, error)
	ListTeam(ctx context.Context) ([]Record, error)
	GetStaff(ctx context.Context, staffID string) (Record, error)
	LeadActivities(ctx context.Context, leadID string) (json.RawMessage, error)
	LeadReminders(ctx context.Context, leadID string) (json.RawMessage, error)
}

// StaffSource resolves a single staff record.
type StaffSource interface {
	GetStaff(ctx context.Context, staffID string) (Record, error)
}

// AssignedTo returns the staff id a lead is assigned to, normalised to a
// string, or "" when the lead is unassigned.
func AssignedTo(lead Record) string {
	id := idString(lead["assigned"])
	if id == "0" {
		return ""
	}
	return id
}

// LeadID returns the id of a lead normalised to a string.
func LeadID(lead Record) string {
	return idString(lead["id"])
}

// AssignedStaffIDs returns the distinct assigned staff ids in first-seen order.
func AssignedStaffIDs(leads []Record) []string {
	seen := make(map[string]struct{}, len(leads))
	ids := make([]string, 0)
	for _, lead := range leads {
		id := AssignedTo(lead)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func idString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	default:
		return ""
	}
}

// decorateStaff fills the display fields the dashboard reads (id, name) from
// the CRM's staffid/firstname/lastname when they are missing.
func decorateStaff(rec Record) Record {
	if _, ok := rec["id"]; !ok {
		if staffID, ok := rec["staffid"]; ok {
			rec["id"] = staffID
		}
	}
	if name, _ := rec["name"].(string); strings.TrimSpace(name) == "" {
		first, _ := rec["firstname"].(string)
		last, _ := rec["lastname"].(string)
		if full := strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last)); full != "" {
			rec["name"] = full
		}
	}
	return rec
}
