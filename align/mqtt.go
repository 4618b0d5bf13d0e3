package align

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// InstrumentsHandler is called when a refreshed instrument-code catalog
// arrives from the backing store's broker topic.
type InstrumentsHandler func(codes []string)

// MQTTClient manages the MQTT connection and the instrument-catalog
// subscription. Network fetches are owned here; the alignment engine only
// ever sees completed data via the handler.
type MQTTClient struct {
	client             mqtt.Client
	config             *Config
	instrumentsHandler InstrumentsHandler
	isConnected        bool
	mu                 sync.RWMutex
}

// InitMQTT initializes an MQTT client with the provided configuration.
// If no broker is configured (config or MQTT_BROKER env var), MQTT is
// disabled and this returns nil.
func InitMQTT(config *Config, handler InstrumentsHandler) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}

	if broker == "" {
		log.Println("MQTT disabled: MQTT_BROKER not set")
		return nil, nil
	}

	if config == nil || config.MQTT.InstrumentsTopic == "" {
		return nil, fmt.Errorf("MQTT enabled but no instruments topic configured")
	}

	client := &MQTTClient{
		config:             config,
		instrumentsHandler: handler,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "damsight"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false) // preserve subscriptions on reconnect
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()

	return client, nil
}

// connectWithRetry attempts to connect to the broker with exponential backoff.
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("Connecting to MQTT broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("Successfully connected to MQTT broker")
				c.setConnected(true)
				return
			}
			log.Printf("MQTT connection failed: %v", token.Error())
		} else {
			log.Println("MQTT connection timeout")
		}

		log.Printf("Retrying MQTT connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

func (c *MQTTClient) onConnect(client mqtt.Client) {
	topic := c.config.MQTT.InstrumentsTopic
	log.Printf("MQTT connected, subscribing to %s", topic)
	c.setConnected(true)

	token := client.Subscribe(topic, 0, c.handleInstrumentsMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("Error subscribing to %s: %v", topic, token.Error())
	} else {
		log.Printf("Successfully subscribed to %s", topic)
	}
}

func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("MQTT reconnecting...")
}

// instrumentsPayload accepts either a bare JSON array of codes or an
// envelope {"instruments": [...]} — both shapes have been seen from the
// backend sync job.
type instrumentsPayload struct {
	Instruments []string `json:"instruments"`
}

func (c *MQTTClient) handleInstrumentsMessage(client mqtt.Client, msg mqtt.Message) {
	payload := msg.Payload()
	log.Printf("Received instrument catalog (topic: %s, size: %d bytes)", msg.Topic(), len(payload))

	var codes []string
	if err := json.Unmarshal(payload, &codes); err != nil {
		var envelope instrumentsPayload
		if err2 := json.Unmarshal(payload, &envelope); err2 != nil || envelope.Instruments == nil {
			log.Printf("Error decoding instrument catalog: %v", err)
			return
		}
		codes = envelope.Instruments
	}

	if c.instrumentsHandler != nil {
		c.instrumentsHandler(codes)
	}
}

// IsConnected returns true if the MQTT client is connected.
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection.
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("Disconnecting from MQTT broker...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetClient returns the underlying MQTT client for publishing.
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// newMQTTClientWithMock creates an MQTTClient with a provided mqtt.Client.
// This is used for testing with mock clients.
func newMQTTClientWithMock(client mqtt.Client, config *Config, handler InstrumentsHandler) *MQTTClient {
	return &MQTTClient{
		client:             client,
		config:             config,
		instrumentsHandler: handler,
	}
}
