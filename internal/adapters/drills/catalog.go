// Package drills resolves practice drills for weak metrics. Two catalog
// implementations share the coaching.Catalog contract: a seeded in-memory
// catalog and a sqlite-backed one for externally managed drill libraries.
package drills

import (
	"context"
	"sync"

	"github.com/jcortez/swinglab/internal/domain/measure"
	"github.com/jcortez/swinglab/internal/domain/model"
)

// MemCatalog serves drills from an in-memory map keyed by metric name.
type MemCatalog struct {
	mu     sync.RWMutex
	byName map[string]model.Drill
}

// NewMemCatalog creates a catalog seeded with the built-in drill set.
func NewMemCatalog() *MemCatalog {
	c := &MemCatalog{byName: make(map[string]model.Drill)}
	for metric, drill := range seedDrills() {
		c.byName[metric] = drill
	}
	return c
}

// Lookup resolves the drill for a metric. A missing drill is ok=false, not
// an error.
func (c *MemCatalog) Lookup(_ context.Context, metric string) (model.Drill, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byName[metric]
	return d, ok, nil
}

// Put adds or replaces a drill.
func (c *MemCatalog) Put(metric string, drill model.Drill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[metric] = drill
}

func seedDrills() map[string]model.Drill {
	return map[string]model.Drill{
		measure.MetricHeadDrift: {
			Key:          "tee-head-still",
			Name:         "Head-Still Tee Work",
			Instructions: "Hit off a tee with a light object balanced on the helmet; keep it in place through contact.",
			Equipment:    "tee, helmet, soft toss balls",
		},
		measure.MetricAttackAngle: {
			Key:          "high-tee-line-drives",
			Name:         "High-Tee Line Drives",
			Instructions: "Set the tee at the top of the zone and hit line drives to the back of the cage.",
			Equipment:    "tee, cage",
		},
		measure.MetricHipShoulderSeparation: {
			Key:          "stride-and-hold",
			Name:         "Stride-and-Hold Separation",
			Instructions: "Stride and hold with hips open and shoulders closed for two counts before swinging.",
			Equipment:    "bat",
		},
		measure.MetricBatLag: {
			Key:          "towel-lag",
			Name:         "Towel Lag Drill",
			Instructions: "Swing a rolled towel; a clean snap at the end means the lag released late enough.",
			Equipment:    "towel",
		},
		measure.MetricBatSpeed: {
			Key:          "overload-underload",
			Name:         "Overload/Underload Swings",
			Instructions: "Alternate sets with a heavy bat and a light bat at maximum intent.",
			Equipment:    "weighted bat set",
		},
		measure.MetricPelvisTilt: {
			Key:          "hip-hinge-band",
			Name:         "Banded Hip Hinge",
			Instructions: "Swing with a resistance band around the hips, keeping the belt line level through rotation.",
			Equipment:    "resistance band",
		},
		measure.MetricSwingPlane: {
			Key:          "angled-tee-path",
			Name:         "Angled Tee Path",
			Instructions: "Work the barrel along an angled tee line matching the pitch plane.",
			Equipment:    "tee",
		},
		measure.MetricArmExtension: {
			Key:          "extension-finish",
			Name:         "Extension Finish Holds",
			Instructions: "Freeze the finish with both arms extended toward the pitcher for two counts.",
			Equipment:    "bat",
		},
		measure.MetricTimeToContact: {
			Key:          "short-stride-quickness",
			Name:         "Short-Stride Quickness",
			Instructions: "Hit front toss from a shortened stride, focusing on being on time with less movement.",
			Equipment:    "front toss screen",
		},
		measure.MetricLaunchAngle: {
			Key:          "ladder-targets",
			Name:         "Launch Ladder Targets",
			Instructions: "Hit to ascending net targets, grooving a repeatable line-drive window.",
			Equipment:    "net targets",
		},
		measure.MetricShoulderAngle: {
			Key:          "back-shoulder-plate",
			Name:         "Back-Shoulder Plate Drill",
			Instructions: "Keep the back shoulder on plane with a plate drill: no early dip before launch.",
			Equipment:    "bat, mirror",
		},
	}
}
