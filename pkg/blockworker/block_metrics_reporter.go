package blockworker

import (
	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
	"github.com/prometheus/client_golang/prometheus"
)

// ClientCounter tracks the number of block readers and writers that
// are currently handed out to clients.
type ClientCounter interface {
	Inc()
	Dec()
}

// BlockMetricsReporter exposes the contents of a block store and the
// events that occur on it through Prometheus. Usage per tier is
// obtained from the block store at scrape time.
type BlockMetricsReporter struct {
	blockstore.BaseBlockStoreEventListener

	store blockstore.BlockStore

	blockEventsTotal *prometheus.CounterVec
	activeClients    prometheus.Gauge

	capacityBytesDesc *prometheus.Desc
	usedBytesDesc     *prometheus.Desc
	freeBytesDesc     *prometheus.Desc
	blocksDesc        *prometheus.Desc
	tempBlocksDesc    *prometheus.Desc
	lostStorageDesc   *prometheus.Desc
}

var (
	_ blockstore.BlockStoreEventListener = (*BlockMetricsReporter)(nil)
	_ prometheus.Collector               = (*BlockMetricsReporter)(nil)
)

// NewBlockMetricsReporter creates a BlockMetricsReporter and registers
// its metrics. The caller is responsible for registering it as an
// event listener of the block store.
func NewBlockMetricsReporter(store blockstore.BlockStore, registerer prometheus.Registerer) (*BlockMetricsReporter, error) {
	r := &BlockMetricsReporter{
		store: store,

		blockEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "buildbarn",
				Subsystem: "blockworker",
				Name:      "block_events_total",
				Help:      "Number of changes made to the contents of the block store.",
			},
			[]string{"event", "tier"}),
		activeClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "buildbarn",
				Subsystem: "blockworker",
				Name:      "active_clients",
				Help:      "Number of block readers and writers that are currently open.",
			}),

		capacityBytesDesc: prometheus.NewDesc(
			"buildbarn_blockworker_capacity_bytes",
			"Total capacity of the directories in a storage tier.",
			[]string{"tier"},
			nil),
		usedBytesDesc: prometheus.NewDesc(
			"buildbarn_blockworker_used_bytes",
			"Amount of space used by blocks in a storage tier, including space reserved for temporary blocks.",
			[]string{"tier"},
			nil),
		freeBytesDesc: prometheus.NewDesc(
			"buildbarn_blockworker_free_bytes",
			"Amount of space available in a storage tier.",
			[]string{"tier"},
			nil),
		blocksDesc: prometheus.NewDesc(
			"buildbarn_blockworker_blocks",
			"Number of committed blocks in the block store.",
			nil,
			nil),
		tempBlocksDesc: prometheus.NewDesc(
			"buildbarn_blockworker_temp_blocks",
			"Number of temporary blocks in the block store.",
			nil,
			nil),
		lostStorageDesc: prometheus.NewDesc(
			"buildbarn_blockworker_lost_storage_directories",
			"Number of directories in a storage tier that became inaccessible.",
			[]string{"tier"},
			nil),
	}
	for _, collector := range []prometheus.Collector{r.blockEventsTotal, r.activeClients, r} {
		if err := registerer.Register(collector); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ActiveClients returns the counter that should be adjusted whenever
// a block reader or writer is opened or closed.
func (r *BlockMetricsReporter) ActiveClients() ClientCounter {
	return r.activeClients
}

// OnAccessBlock counts block accesses.
func (r *BlockMetricsReporter) OnAccessBlock(blockID blockstore.BlockID, location blockstore.BlockStoreLocation) {
	r.blockEventsTotal.WithLabelValues("Access", location.TierAlias).Inc()
}

// OnCommitBlock counts committed blocks.
func (r *BlockMetricsReporter) OnCommitBlock(blockID blockstore.BlockID, location blockstore.BlockStoreLocation) {
	r.blockEventsTotal.WithLabelValues("Commit", location.TierAlias).Inc()
}

// OnAbortBlock counts aborted temporary blocks.
func (r *BlockMetricsReporter) OnAbortBlock(blockID blockstore.BlockID) {
	r.blockEventsTotal.WithLabelValues("Abort", "").Inc()
}

// OnMoveBlock counts blocks moved between tiers. Moves are attributed
// to the destination tier.
func (r *BlockMetricsReporter) OnMoveBlock(blockID blockstore.BlockID, oldLocation, newLocation blockstore.BlockStoreLocation) {
	r.blockEventsTotal.WithLabelValues("Move", newLocation.TierAlias).Inc()
}

// OnRemoveBlock counts removed blocks.
func (r *BlockMetricsReporter) OnRemoveBlock(blockID blockstore.BlockID, location blockstore.BlockStoreLocation) {
	r.blockEventsTotal.WithLabelValues("Remove", location.TierAlias).Inc()
}

// OnBlockLost counts blocks stored in directories that became
// inaccessible.
func (r *BlockMetricsReporter) OnBlockLost(blockID blockstore.BlockID) {
	r.blockEventsTotal.WithLabelValues("Lost", "").Inc()
}

// Describe sends the descriptors of the metrics obtained from the
// block store at scrape time.
func (r *BlockMetricsReporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- r.capacityBytesDesc
	ch <- r.usedBytesDesc
	ch <- r.freeBytesDesc
	ch <- r.blocksDesc
	ch <- r.tempBlocksDesc
	ch <- r.lostStorageDesc
}

// Collect reports the current usage of the block store.
func (r *BlockMetricsReporter) Collect(ch chan<- prometheus.Metric) {
	meta := r.store.GetBlockStoreMeta()
	for tierAlias, capacityBytes := range meta.CapacityBytesOnTiers {
		usedBytes := meta.UsedBytesOnTiers[tierAlias]
		ch <- prometheus.MustNewConstMetric(r.capacityBytesDesc, prometheus.GaugeValue, float64(capacityBytes), tierAlias)
		ch <- prometheus.MustNewConstMetric(r.usedBytesDesc, prometheus.GaugeValue, float64(usedBytes), tierAlias)
		ch <- prometheus.MustNewConstMetric(r.freeBytesDesc, prometheus.GaugeValue, float64(capacityBytes-usedBytes), tierAlias)
	}
	ch <- prometheus.MustNewConstMetric(r.blocksDesc, prometheus.GaugeValue, float64(meta.NumberOfBlocks))
	ch <- prometheus.MustNewConstMetric(r.tempBlocksDesc, prometheus.GaugeValue, float64(meta.NumberOfTempBlocks))
	for tierAlias, dirPaths := range meta.LostStorage {
		ch <- prometheus.MustNewConstMetric(r.lostStorageDesc, prometheus.GaugeValue, float64(len(dirPaths)), tierAlias)
	}
}
