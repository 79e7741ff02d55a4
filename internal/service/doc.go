// Package service provides the read-side application service for tasks:
// paginated, filtered listings and cached aggregate counts.
package service
