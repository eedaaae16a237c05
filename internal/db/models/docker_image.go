// docker_image.go defines the DockerImage model for container images a
// merchant publishes alongside a service.
package models

import "time"

// DockerImageStatus is the lifecycle state of a published image.
type DockerImageStatus string

const (
	ImageActive     DockerImageStatus = "active"
	ImageDeprecated DockerImageStatus = "deprecated"
	ImageDisabled   DockerImageStatus = "disabled"
)

// LicensingModel describes how an image is licensed to consumers.
type LicensingModel string

const (
	LicensingOpenSource   LicensingModel = "open_source"
	LicensingSubscription LicensingModel = "subscription"
	LicensingPerpetual    LicensingModel = "perpetual"
)

// DockerImage represents a container image attached to a service.
type DockerImage struct {
	ID             string
	ServiceID      string
	Name           string
	Tag            string
	Status         DockerImageStatus
	LicensingModel LicensingModel
	LicenseStatus  string
	CreatedAt      time.Time
}
