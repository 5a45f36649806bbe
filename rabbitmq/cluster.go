package rabbitmq

import (
	rh "github.com/michaelklishin/rabbit-hole/v2"

	"github.com/jacklaaa89/mq"
)

// managementClient the part of the rabbit-hole client the cluster uses.
type managementClient interface {
	GetClusterName() (*rh.ClusterName, error)
}

// ManagementCluster implements mq.Cluster using the rabbitmq management API,
// the default partition of a connection is the name of the cluster.
type ManagementCluster struct {
	client managementClient
}

// NewManagementCluster creates a cluster backed by the management API at uri, e.g. http://localhost:15672.
func NewManagementCluster(uri, username, password string) (*ManagementCluster, error) {
	c, err := rh.NewClient(uri, username, password)
	if err != nil {
		return nil, &mq.EnvironmentError{Op: "management client", Err: err}
	}

	return &ManagementCluster{client: c}, nil
}

// DefaultPartition implements mq.Cluster.
func (m *ManagementCluster) DefaultPartition(string) (string, error) {
	cn, err := m.client.GetClusterName()
	if err != nil {
		return "", &mq.EnvironmentError{Op: "cluster name", Err: err}
	}

	return cn.Name, nil
}
