package consul

import (
	"fmt"
	"net"

	"github.com/Scusemua/go-utils/config"
	"github.com/Scusemua/go-utils/logger"
	consul "github.com/hashicorp/consul/api"
)

const (
	KernelServiceName = "notebook-kernel"
)

// NewClient returns a new Client with connection to consul
func NewClient(addr string) (*Client, error) {
	cfg := consul.DefaultConfig()
	cfg.Address = addr

	c, err := consul.NewClient(cfg)
	if err != nil {
		return nil, err
	}

	cli := &Client{Client: c}
	config.InitLogger(&cli.log, "Consul ")

	return cli, nil
}

// Client provides an interface for communicating with registry
type Client struct {
	*consul.Client

	log logger.Logger
}

// getLocalIP returns the first non-loopback IPv4 address of the host.
func (c *Client) getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String(), nil
		}
	}

	return "", fmt.Errorf("registry: can not find local ip")
}

// Register a kernel with registry. The shell port is advertised as the service port and the
// remaining ports of the kernel are attached as service metadata.
func (c *Client) Register(id string, ip string, shellPort int, meta map[string]string) error {
	if ip == "" || ip == "0.0.0.0" || ip == "*" {
		var err error
		ip, err = c.getLocalIP()
		if err != nil {
			return err
		}
	}

	reg := &consul.AgentServiceRegistration{
		ID:      id,
		Name:    KernelServiceName,
		Port:    shellPort,
		Address: ip,
		Meta:    meta,
		Tags:    []string{"jupyter"},
	}
	c.log.Info("Trying to register kernel [ name: %s, id: %s, address: %s:%d ]", KernelServiceName, id, ip, shellPort)
	return c.Agent().ServiceRegister(reg)
}

// Deregister removes the kernel from registry
func (c *Client) Deregister(id string) error {
	c.log.Info("Deregistering kernel %s", id)
	return c.Agent().ServiceDeregister(id)
}
