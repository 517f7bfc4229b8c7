// Package scoring joins the classified registry, momentum profiles and
// latest-year financial snapshots into master organization profiles,
// flags hollow and turbulent organizations, and assigns each profile an
// additive outreach priority score with a categorical target flag. It
// also aggregates profiles into a sector/size/momentum cohort grid.
package scoring
