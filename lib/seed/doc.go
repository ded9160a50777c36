// Package seed holds the default dataset (departments, categories, brands,
// products, banners, the admin user and the store settings) that the shop
// writes to every absent slot on first run. The dataset is embedded from
// seed.yaml.
package seed
