// Package config provides configuration structures and utilities for imgmirror.
// It defines the fixed constants of a run (image root, recognized media host
// prefix), HTTP settings for the image fetcher, and report preferences, and
// loads overrides from an optional YAML file.
package config
