/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Comcast/nudge/core"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTOptions follow mosquitto_sub's command-line arguments where
// they can.
type MQTTOptions struct {
	Broker    string
	Port      int
	ClientId  string
	KeepAlive time.Duration
	Username  string
	Password  string
	Reconnect bool
	Clean     bool

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint

	CertFilename string
	KeyFilename  string
	CAFilename   string
	Insecure     bool

	// CatalogTopic is where catalogs arrive, optionally as
	// TOPIC:QOS.
	CatalogTopic string

	// ExposureTopic is where exposures are published, optionally
	// as TOPIC:QOS.  Empty means exposures aren't published.
	ExposureTopic string
}

// DefaultMQTTOptions returns options for a local broker.
func DefaultMQTTOptions() *MQTTOptions {
	return &MQTTOptions{
		Broker:        "tcp://localhost",
		Port:          1883,
		KeepAlive:     10 * time.Second,
		Clean:         true,
		Quiesce:       100,
		CatalogTopic:  "nudge/catalog:1",
		ExposureTopic: "nudge/exposure",
	}
}

// TLSConfig builds a tls.Config from the cert options.
func (o *MQTTOptions) TLSConfig() (*tls.Config, error) {
	conf := &tls.Config{
		InsecureSkipVerify: o.Insecure,
	}

	if o.CAFilename != "" {
		roots, _ := x509.SystemCertPool()
		if roots == nil {
			roots = x509.NewCertPool()
		}
		certs, err := os.ReadFile(filepath.Clean(o.CAFilename))
		if err != nil {
			return nil, fmt.Errorf("couldn't read %s: %w", o.CAFilename, err)
		}
		if !roots.AppendCertsFromPEM(certs) {
			return nil, fmt.Errorf("no certs in %s", o.CAFilename)
		}
		conf.RootCAs = roots
	}

	if o.KeyFilename != "" {
		cert, err := tls.LoadX509KeyPair(o.CertFilename, o.KeyFilename)
		if err != nil {
			return nil, err
		}
		conf.Certificates = []tls.Certificate{cert}
	}

	return conf, nil
}

// PublishFunc sends a payload to a topic.
type PublishFunc func(topic string, qos byte, payload []byte) error

// MQTTCouplings receive catalogs from an MQTT broker and publish
// exposures to it.
//
// MQTTCouplings is also a core.ExposureRecorder.
type MQTTCouplings struct {
	Client  mqtt.Client
	Options *MQTTOptions
	Holder  *Holder
	Logger  *zap.Logger

	// Publish defaults to publishing with the Client.
	Publish PublishFunc

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewMQTTCouplings makes (but does not connect) an MQTT client.
func NewMQTTCouplings(o *MQTTOptions, h *Holder, logger *zap.Logger) (*MQTTCouplings, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("%s:%d", o.Broker, o.Port))
	opts.SetClientID(o.ClientId)
	opts.SetKeepAlive(o.KeepAlive)
	opts.Username = o.Username
	opts.Password = o.Password
	opts.AutoReconnect = o.Reconnect
	opts.CleanSession = o.Clean

	tlsConf, err := o.TLSConfig()
	if err != nil {
		return nil, err
	}
	opts.SetTLSConfig(tlsConf)

	c := &MQTTCouplings{
		Options: o,
		Holder:  h,
		Logger:  logger,
	}

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		c.Logger.Warn("MQTT connection lost", zap.Error(err))
	}
	opts.DefaultPublishHandler = func(client mqtt.Client, msg mqtt.Message) {
		c.receive(msg.Topic(), msg.Payload())
	}

	c.Client = mqtt.NewClient(opts)
	c.Publish = c.publish

	return c, nil
}

func (c *MQTTCouplings) publish(topic string, qos byte, payload []byte) error {
	token := c.Client.Publish(topic, qos, false, payload)
	token.Wait()
	return token.Error()
}

// receive parses a catalog payload and installs it.
//
// A bad catalog is logged and ignored, so the Holder keeps the last
// good one.
func (c *MQTTCouplings) receive(topic string, payload []byte) {
	cat, err := core.ParseCatalog(payload)
	if err != nil {
		c.Logger.Warn("ignoring bad catalog",
			zap.String("topic", topic),
			zap.String("payload", Excerpt(payload)),
			zap.Error(err))
		return
	}
	c.Logger.Info("catalog received",
		zap.String("topic", topic),
		zap.Int("messages", len(cat.Messages)))
	c.Holder.Set(cat)
}

// Start connects to the broker and subscribes to the catalog topic.
func (c *MQTTCouplings) Start(ctx context.Context) error {
	c.Logger.Info("connecting to broker")
	if token := c.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	topic, qos := parseTopic(c.Options.CatalogTopic)
	if topic == "" {
		return nil
	}
	c.Logger.Info("subscribing", zap.String("topic", topic), zap.Uint8("qos", qos))
	if t := c.Client.Subscribe(topic, qos, nil); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	return nil
}

// Stop terminates the MQTT session.
func (c *MQTTCouplings) Stop(ctx context.Context) error {
	c.Logger.Info("disconnecting")
	c.Client.Disconnect(c.Options.Quiesce)
	return nil
}

// Exposure is the payload published for each exposure.
type Exposure struct {
	Message    string `json:"message"`
	Experiment string `json:"experiment,omitempty"`
	At         string `json:"at"`
}

// RecordExposure publishes {"exposure":{...}} to the exposure topic.
func (c *MQTTCouplings) RecordExposure(ctx context.Context, m *core.Message) error {
	if c.Options.ExposureTopic == "" {
		return nil
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	x := &Exposure{
		Message: m.Id,
		At:      now().UTC().Format(time.RFC3339Nano),
	}
	if cat := c.Holder.Catalog(); cat != nil {
		x.Experiment = cat.MessageUnderExperiment
	}

	js, err := json.Marshal(map[string]interface{}{
		"exposure": x,
	})
	if err != nil {
		return err
	}

	topic, qos := parseTopic(c.Options.ExposureTopic)
	return c.Publish(topic, qos, js)
}

// parseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	var topic string
	var qos byte
	if _, err := fmt.Sscanf(strings.Replace(s, ":", " ", 1), "%s %d", &topic, &qos); err != nil {
		return s, 0
	}
	return topic, qos
}
