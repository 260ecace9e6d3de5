// Command genfixtures generates local development data: a SQL seed file with
// users and parcels laid out on a grid, and a matching alert-batch JSON body
// for the POST /v1/alerts/process endpoint. The first alert polygon covers
// part of the grid so a seeded database produces non-zero fan-out.
//
// Usage:
//
//	go run ./cmd/genfixtures -users 25 -sql-out seed.sql -alerts-out alerts.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
)

// Grid origin, roughly central Iowa farmland.
const (
	originLon = -93.6
	originLat = 41.9
	cellSize  = 0.02
)

func main() {
	userCount := flag.Int("users", 25, "number of users to generate")
	sqlOut := flag.String("sql-out", "seed.sql", "output path for the SQL seed file")
	alertsOut := flag.String("alerts-out", "alerts.json", "output path for the alert batch JSON")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	if err := run(*userCount, *sqlOut, *alertsOut, *seed); err != nil {
		log.Fatal(err)
	}
}

type seedUser struct {
	id      string
	email   string
	phone   string
	parcels []seedParcel
}

type seedParcel struct {
	id       string
	geometry []byte
}

func run(userCount int, sqlOut, alertsOut string, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	users := make([]seedUser, 0, userCount)
	for i := 0; i < userCount; i++ {
		u := seedUser{
			id:    uuid.NewString(),
			email: fmt.Sprintf("farmer%02d@example.com", i),
		}
		// Some users have no phone; one in five has no email so ineligible
		// dispatches show up during development.
		if rng.Intn(2) == 0 {
			u.phone = fmt.Sprintf("+1515555%04d", rng.Intn(10000))
		}
		if i%5 == 4 {
			u.email = ""
		}

		parcelCount := 1 + rng.Intn(2)
		for j := 0; j < parcelCount; j++ {
			cell := i*2 + j
			geom, err := parcelGeometry(cell)
			if err != nil {
				return err
			}
			u.parcels = append(u.parcels, seedParcel{id: uuid.NewString(), geometry: geom})
		}
		users = append(users, u)
	}

	if err := writeSQL(sqlOut, users); err != nil {
		return err
	}
	if err := writeAlerts(alertsOut, userCount); err != nil {
		return err
	}

	fmt.Printf("wrote %s and %s (%d users)\n", sqlOut, alertsOut, userCount)
	return nil
}

// parcelGeometry builds the stored two-feature collection for one grid cell.
func parcelGeometry(cell int) ([]byte, error) {
	minLon := originLon + float64(cell%10)*cellSize
	minLat := originLat + float64(cell/10)*cellSize

	ring := orb.Ring{
		{minLon, minLat},
		{minLon + cellSize, minLat},
		{minLon + cellSize, minLat + cellSize},
		{minLon, minLat + cellSize},
		{minLon, minLat},
	}

	boundary := geojson.NewFeature(orb.Polygon{ring})
	boundary.Properties["name"] = domain.FeatureBoundary

	anchor := geojson.NewFeature(orb.Point{minLon + cellSize/2, minLat + cellSize/2})
	anchor.Properties["name"] = domain.FeatureAnchor

	fc := geojson.NewFeatureCollection()
	fc.Append(boundary)
	fc.Append(anchor)

	return fc.MarshalJSON()
}

func writeSQL(path string, users []seedUser) error {
	var b strings.Builder
	b.WriteString("BEGIN;\n")
	b.WriteString("TRUNCATE users, parcels;\n")

	for _, u := range users {
		refs := make([]string, 0, len(u.parcels))
		for _, p := range u.parcels {
			refs = append(refs, p.id)
			fmt.Fprintf(&b, "INSERT INTO parcels (id, geometry) VALUES ('%s', '%s');\n",
				p.id, strings.ReplaceAll(string(p.geometry), "'", "''"))
		}
		fmt.Fprintf(&b, "INSERT INTO users (id, email, phone_number, parcel_refs) VALUES ('%s', %s, %s, ARRAY['%s']);\n",
			u.id, sqlString(u.email), sqlString(u.phone), strings.Join(refs, "','"))
	}

	b.WriteString("COMMIT;\n")
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func sqlString(s string) string {
	if s == "" {
		return "NULL"
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// writeAlerts emits a two-alert batch: one covering the lower half of the
// parcel grid, one far away that should match nothing.
func writeAlerts(path string, userCount int) error {
	rows := float64(userCount/5 + 1)

	covering := [][]float64{
		{originLon - cellSize, originLat - cellSize},
		{originLon + 10*cellSize, originLat - cellSize},
		{originLon + 10*cellSize, originLat + rows*cellSize/2},
		{originLon - cellSize, originLat + rows*cellSize/2},
		{originLon - cellSize, originLat - cellSize},
	}
	distant := [][]float64{
		{10, 10},
		{11, 10},
		{11, 11},
		{10, 11},
		{10, 10},
	}

	body := map[string]any{
		"alerts": []map[string]any{
			{
				"polygon": covering,
				"properties": domain.AlertProperties{
					Event:       "Severe Thunderstorm Warning",
					Severity:    "Severe",
					Headline:    "Severe thunderstorm over central grid",
					Description: "Quarter-sized hail and 60 mph gusts expected.",
					Instruction: "Move equipment and livestock under cover.",
				},
			},
			{
				"polygon": distant,
				"properties": domain.AlertProperties{
					Event:    "Flood Watch",
					Severity: "Moderate",
				},
			},
		},
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal alert batch: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
