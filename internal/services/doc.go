// Package services holds the shared error taxonomy for external-service
// failures and, in subpackages, the clients for each external collaborator.
package services
