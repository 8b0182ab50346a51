package verify

import "fmt"

// ShelterCoverageSQL ranks regions by delivered shelter over shelter need.
// Regions without need are excluded. Table names are quoted to match the
// case the writer creates them with on case-folding stores.
const ShelterCoverageSQL = `
SELECT * FROM (
    SELECT
        R.region_name,
        N.total_needed,
        CAST(COALESCE(D.total_delivered, 0) AS REAL) / N.total_needed AS coverage_rate
    FROM "Regions" R
    JOIN (
        SELECT region_id, SUM(shelter_needed) AS total_needed
        FROM "Needs"
        GROUP BY region_id
    ) N ON R.region_id = N.region_id
    LEFT JOIN (
        SELECT region_id, SUM(quantity_delivered) AS total_delivered
        FROM "Logistics"
        WHERE aid_type = 'Shelter'
        GROUP BY region_id
    ) D ON R.region_id = D.region_id
    WHERE N.total_needed > 0
) coverage
ORDER BY coverage_rate DESC`

// CategoryRevenueSQL returns revenue per product category since the bound
// date with a running total ordered by category and earliest transaction.
// ph is the bind marker for the date.
func CategoryRevenueSQL(ph string) string {
	return fmt.Sprintf(`
SELECT
    p.category,
    SUM(t.total_amount) AS total_revenue,
    SUM(SUM(t.total_amount)) OVER (ORDER BY p.category, MIN(t.transaction_date)) AS cumulative_total_sales
FROM sales_transactions t
JOIN products p ON t.product_id = p.product_id
WHERE t.transaction_date >= %s
GROUP BY p.category
ORDER BY total_revenue DESC`, ph)
}

// CategoryLineItemsSQL returns the transactions behind CategoryRevenueSQL.
func CategoryLineItemsSQL(ph string) string {
	return fmt.Sprintf(`
SELECT
    p.category,
    t.total_amount,
    t.transaction_date
FROM sales_transactions t
JOIN products p ON t.product_id = p.product_id
WHERE t.transaction_date >= %s
ORDER BY t.transaction_date, p.category, t.total_amount`, ph)
}
