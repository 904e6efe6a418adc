// Command swinggen generates synthetic swing pose streams. It writes raw
// detector JSON for offline use, or submits the stream to a running service
// and polls the attempt until it settles.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jcortez/swinglab/internal/domain/pose"
	"github.com/jcortez/swinglab/internal/synth"
)

const (
	requestTimeout = 30 * time.Second
	pollInterval   = 200 * time.Millisecond
	pollBudget     = 30 * time.Second
	outputFileMode = 0600
)

func main() {
	var (
		frames     = flag.Int("frames", 60, "number of frames to generate")
		fps        = flag.Float64("fps", 30, "capture frame rate")
		seed       = flag.Int64("seed", 1, "jitter seed")
		confidence = flag.Float64("confidence", 0.9, "keypoint confidence")
		stance     = flag.Bool("stance", false, "generate a no-swing stream instead of a swing")
		out        = flag.String("out", "", "write detector JSON to this file (default stdout)")
		url        = flag.String("url", "", "submit to a running service at this base URL instead of writing JSON")
		session    = flag.String("session", "", "session id for submission (default random)")
		athlete    = flag.String("athlete", "", "athlete id for submission (default random)")
	)
	flag.Parse()

	gen := synth.New(
		synth.WithFrameCount(*frames),
		synth.WithFPS(*fps),
		synth.WithSeed(*seed),
		synth.WithConfidence(*confidence),
	)
	var stream []pose.RawFrame
	if *stance {
		stream = gen.Stance()
	} else {
		stream = gen.Swing()
	}

	if *url != "" {
		if err := submit(*url, *session, *athlete, *fps, stream); err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(1)
		}
		return
	}

	data, err := json.MarshalIndent(stream, "", "  ")
	if err != nil {
		os.Stderr.WriteString("marshal frames: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *out == "" {
		os.Stdout.Write(data)
		os.Stdout.WriteString("\n")
		return
	}
	if err := os.WriteFile(*out, data, outputFileMode); err != nil {
		os.Stderr.WriteString("write output: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func submit(baseURL, session, athlete string, fps float64, stream []pose.RawFrame) error {
	if session == "" {
		session = uuid.New().String()
	}
	if athlete == "" {
		athlete = uuid.New().String()
	}

	body, err := json.Marshal(map[string]any{
		"session_id": session,
		"athlete_id": athlete,
		"video_ref":  "synthetic://" + session,
		"fps":        fps,
		"frames":     stream,
	})
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Post(baseURL+"/analyses", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit analysis: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("submit analysis: unexpected status %d", resp.StatusCode)
	}

	var ack struct {
		AttemptID string `json:"attempt_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("decode ack: %w", err)
	}
	fmt.Printf("attempt %s accepted\n", ack.AttemptID)

	ctx, cancel := context.WithTimeout(context.Background(), pollBudget)
	defer cancel()
	return poll(ctx, client, baseURL, ack.AttemptID)
}

func poll(ctx context.Context, client *http.Client, baseURL, attemptID string) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("attempt %s did not settle: %w", attemptID, ctx.Err())
		case <-ticker.C:
		}

		resp, err := client.Get(baseURL + "/analyses/" + attemptID)
		if err != nil {
			return fmt.Errorf("poll attempt: %w", err)
		}
		var view struct {
			State       string   `json:"state"`
			Percent     int      `json:"percent"`
			NeedsRetake bool     `json:"needs_retake"`
			Reasons     []string `json:"reasons"`
			Result      *struct {
				Overall int    `json:"overall"`
				Label   string `json:"label"`
			} `json:"result"`
		}
		err = json.NewDecoder(resp.Body).Decode(&view)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode attempt view: %w", err)
		}

		switch view.State {
		case "complete":
			if view.Result != nil {
				fmt.Printf("complete: overall %d (%s)\n", view.Result.Overall, view.Result.Label)
			}
			return nil
		case "needs_retake":
			fmt.Printf("needs retake: %v\n", view.Reasons)
			return nil
		case "error":
			return fmt.Errorf("attempt %s failed", attemptID)
		default:
			fmt.Printf("%s (%d%%)\n", view.State, view.Percent)
		}
	}
}
