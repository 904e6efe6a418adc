// Package pose normalizes heterogeneous pose-detector output into the
// canonical per-frame keypoint representation. It is the only package aware
// of the detector's exact wire shape; downstream stages never branch on
// model vocabulary.
package pose

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/jcortez/swinglab/internal/domain/model"
)

// RawLandmark is one detected landmark as emitted by the external model.
// Field names for identity and confidence vary across model versions; the
// custom decoder accepts the known spellings.
type RawLandmark struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// rawLandmarkWire enumerates every field spelling seen across detector
// versions. Absent confidence decodes as 0.
type rawLandmarkWire struct {
	Name     *string  `json:"name"`
	Part     *string  `json:"part"`
	Keypoint *string  `json:"keypoint"`
	ID       *int     `json:"id"`
	Index    *int     `json:"index"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Score    *float64 `json:"score"`
	Conf     *float64 `json:"confidence"`
	Vis      *float64 `json:"visibility"`
}

// UnmarshalJSON decodes a landmark from any supported detector shape.
func (l *RawLandmark) UnmarshalJSON(data []byte) error {
	var w rawLandmarkWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch {
	case w.Name != nil:
		l.Name = *w.Name
	case w.Part != nil:
		l.Name = *w.Part
	case w.Keypoint != nil:
		l.Name = *w.Keypoint
	case w.ID != nil:
		l.Name = strconv.Itoa(*w.ID)
	case w.Index != nil:
		l.Name = strconv.Itoa(*w.Index)
	}
	l.X = w.X
	l.Y = w.Y
	switch {
	case w.Score != nil:
		l.Confidence = *w.Score
	case w.Conf != nil:
		l.Confidence = *w.Conf
	case w.Vis != nil:
		l.Confidence = *w.Vis
	}
	return nil
}

// RawPerson is one detected person in a frame.
type RawPerson struct {
	Score     float64       `json:"score"`
	Landmarks []RawLandmark `json:"landmarks"`
}

// RawFrame is the detector output for one sampled video frame. Zero people
// is a valid result.
type RawFrame struct {
	FrameIndex  int         `json:"frame_index"`
	TimestampMs float64     `json:"timestamp_ms"`
	People      []RawPerson `json:"people"`
}

// landmarkAliases maps every known vocabulary spelling onto the canonical
// landmark ids. Lookup is done on the lowercased name with spaces and
// hyphens collapsed to underscores, so "leftShoulder", "LEFT_SHOULDER" and
// "left shoulder" all resolve. Numeric strings resolve through COCO index
// order.
var landmarkAliases = buildAliasTable()

func buildAliasTable() map[string]model.Landmark {
	table := make(map[string]model.Landmark)
	for i, lm := range model.AllLandmarks() {
		table[string(lm)] = lm
		// camelCase spelling used by older tfjs models: left_shoulder -> leftshoulder
		table[strings.ReplaceAll(string(lm), "_", "")] = lm
		// numeric index vocabulary
		table[strconv.Itoa(i)] = lm
	}
	return table
}

func canonicalName(raw string) (model.Landmark, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if lm, ok := landmarkAliases[key]; ok {
		return lm, true
	}
	// collapse the underscores for camelCase inputs already lowercased
	if lm, ok := landmarkAliases[strings.ReplaceAll(key, "_", "")]; ok {
		return lm, true
	}
	return "", false
}

// Normalize converts raw detector frames into the canonical FrameKeypoints
// sequence. Per frame it keeps the highest-scoring person, maps landmark
// names through the alias table and drops names outside the vocabulary. A
// frame with zero people yields an empty keypoint set, not an error. The
// mapping is pure.
func Normalize(frames []RawFrame) []model.FrameKeypoints {
	out := make([]model.FrameKeypoints, 0, len(frames))
	for _, rf := range frames {
		fk := model.FrameKeypoints{
			FrameIndex:  rf.FrameIndex,
			TimestampMs: rf.TimestampMs,
			Keypoints:   make(map[model.Landmark]model.Keypoint),
		}
		if person, ok := bestPerson(rf.People); ok {
			for _, raw := range person.Landmarks {
				lm, known := canonicalName(raw.Name)
				if !known {
					continue
				}
				kp := model.Keypoint{Name: lm, X: raw.X, Y: raw.Y, Confidence: raw.Confidence}
				// Keep the more confident detection if a name repeats.
				if prev, dup := fk.Keypoints[lm]; dup && prev.Confidence >= kp.Confidence {
					continue
				}
				fk.Keypoints[lm] = kp
			}
		}
		out = append(out, fk)
	}
	return out
}

func bestPerson(people []RawPerson) (RawPerson, bool) {
	if len(people) == 0 {
		return RawPerson{}, false
	}
	best := people[0]
	for _, p := range people[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, true
}
