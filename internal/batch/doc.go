// Package batch orchestrates a week's content run: a bounded worker pool
// processes planned items concurrently while the week manifest preserves
// planning order, one terminal entry per item.
package batch
