package inventree

// Status codes are service-defined integers (spec §6.2); the specific
// numbers below match InvenTree's own status enum, the service this
// package's operation table was modeled on. They're unexported
// constants — a deployment against a differently numbered service
// overrides behavior through the exported OpenPOStatuses/OpenBOStatuses
// vars below (and Repository.CountOnHoldPO) rather than through these.
const (
	statusPending    = 10
	statusPlaced     = 20
	statusOnHold     = 25
	statusProduction = 30
	statusComplete   = 40
	statusCancelled  = 50
)

// OpenPOStatuses is the set of purchase-order statuses that count as
// "not yet received" (spec §6.2's OPEN_PO). OnHold counts by default
// per spec §9's resolved open question; set CountOnHoldPO=false on the
// Repository to exclude it.
var OpenPOStatuses = []int{statusPending, statusPlaced, statusOnHold}

// OpenBOStatuses is the set of build-order statuses that count as "not
// yet completed" (spec §6.2's OPEN_BO).
var OpenBOStatuses = []int{statusPending, statusProduction, statusOnHold}

func statusSet(statuses []int) map[int]struct{} {
	set := make(map[int]struct{}, len(statuses))
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return set
}
