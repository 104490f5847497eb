// Simulator publishes a synthetic temperature walk to the sensor topic and
// mirrors each sample into the readings store over HTTP, so a full local
// stack can run without hardware.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"temp-monitor/backend/internal/config"
)

func main() {
	backendURL := flag.String("backend", "http://localhost:3000", "Backend base URL for mirroring readings; empty disables mirroring")
	interval := flag.Duration("interval", 2*time.Second, "Time between samples")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.MQTTBrokerAddr == "" {
		log.Fatal("simulator: MQTT_BROKER_ADDR is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("simulator: shutting down...")
		cancel()
	}()

	conn, err := net.Dial("tcp", cfg.MQTTBrokerAddr)
	if err != nil {
		log.Fatalf("simulator: dial broker: %v", err)
	}
	clientID := "tmon-sim-" + uuid.NewString()[:8]
	cli := paho.NewClient(paho.ClientConfig{
		Conn:     conn,
		ClientID: clientID,
	})
	connack, err := cli.Connect(ctx, &paho.Connect{
		ClientID:   clientID,
		KeepAlive:  30,
		CleanStart: true,
	})
	if err != nil {
		log.Fatalf("simulator: connect: %v", err)
	}
	if connack.ReasonCode >= 0x80 {
		log.Fatalf("simulator: connect rejected: reason code %d", connack.ReasonCode)
	}
	defer func() { _ = cli.Disconnect(&paho.Disconnect{ReasonCode: 0}) }()

	log.Printf("simulator: publishing to %s on %s every %s", cfg.MQTTTopic, cfg.MQTTBrokerAddr, *interval)

	httpClient := &http.Client{Timeout: 5 * time.Second}
	temp := 22.0
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("simulator: stopped")
			return
		case <-ticker.C:
		}

		// Random walk, drifting back toward room temperature.
		temp += (rand.Float64() - 0.5) + (22-temp)*0.05
		payload := strconv.FormatFloat(temp, 'f', 2, 64)

		if _, err := cli.Publish(ctx, &paho.Publish{
			Topic:   cfg.MQTTTopic,
			QoS:     0,
			Payload: []byte(payload),
		}); err != nil {
			log.Printf("simulator: publish: %v", err)
			continue
		}

		if *backendURL != "" {
			if err := mirrorReading(ctx, httpClient, *backendURL, temp); err != nil {
				log.Printf("simulator: mirror reading: %v", err)
			}
		}
	}
}

// mirrorReading stores the sample through the readings API, pairing it with
// the currently configured threshold.
func mirrorReading(ctx context.Context, client *http.Client, base string, temp float64) error {
	threshold, err := latestThreshold(ctx, client, base)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]float64{
		"temperature":     temp,
		"threshold_value": threshold,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", base+"/api/readings", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /api/readings: status %d", resp.StatusCode)
	}
	return nil
}

// latestThreshold fetches the current threshold, defaulting to 30 when the
// store is empty.
func latestThreshold(ctx context.Context, client *http.Client, base string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", base+"/api/thresholds/latest", nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("GET /api/thresholds/latest: status %d", resp.StatusCode)
	}

	var rec *struct {
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return 0, err
	}
	if rec == nil {
		return 30, nil
	}
	return rec.Value, nil
}
