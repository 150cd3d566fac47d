// Package influxdb records scheduler activity as InfluxDB time series.
//
// Client wraps the influxdb-client-go v2 non-blocking write API. Recorder
// converts driver events (applied entries, reloads, reconciliations) into
// points, so a dashboard can show when each switch was driven and how late.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	rec := influxdb.NewRecorder(client, cfg.Site.Name)
//	handle, err := driver.Start(ctx, exec, driver.Options{Recorder: rec})
//
// # Error Handling
//
// Writes never block and never return errors. Batch failures are delivered
// to the SetOnError callback.
package influxdb
