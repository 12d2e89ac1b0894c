// Package domain holds the entity/relationship graph model shared by every
// layer: the five entity kinds and their attribute variants, edges,
// provenance, access policy, the error taxonomy and the audit tables.
package domain
